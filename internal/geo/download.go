package geo

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const tigerBaseURL = "https://www2.census.gov/geo/tiger"

// TractURL builds the Census Bureau download URL for a state's census
// tract shapefile. stateFIPS is the two-digit state FIPS code.
func TractURL(year int, stateFIPS string) string {
	return fmt.Sprintf("%s/TIGER%d/TRACT/tl_%d_%s_tract.zip", tigerBaseURL, year, year, stateFIPS)
}

// PlaceURL builds the Census Bureau download URL for a state's place
// (city and CDP) shapefile.
func PlaceURL(year int, stateFIPS string) string {
	return fmt.Sprintf("%s/TIGER%d/PLACE/tl_%d_%s_place.zip", tigerBaseURL, year, year, stateFIPS)
}

// FetchShapefile downloads a TIGER/Line ZIP into cacheDir, extracts it,
// and returns the path of the contained .shp file. A ZIP already present
// in the cache is reused without another request.
func FetchShapefile(ctx context.Context, url, cacheDir string) (string, error) {
	log := zap.L().With(
		zap.String("component", "geo.fetch"),
		zap.String("url", url),
	)

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", eris.Wrap(err, "geo: create cache dir")
	}

	zipName := url[strings.LastIndex(url, "/")+1:]
	zipPath := filepath.Join(cacheDir, zipName)

	if info, err := os.Stat(zipPath); err == nil && info.Size() > 0 {
		log.Debug("zip cached, skipping download", zap.String("path", zipPath))
	} else {
		log.Info("downloading shapefile archive")
		if err := fetchToFile(ctx, url, zipPath); err != nil {
			return "", eris.Wrap(err, "geo: download shapefile")
		}
	}

	extractDir := filepath.Join(cacheDir, strings.TrimSuffix(zipName, ".zip"))
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return "", eris.Wrap(err, "geo: create extract dir")
	}
	if err := unzipFlat(zipPath, extractDir); err != nil {
		return "", eris.Wrap(err, "geo: extract archive")
	}

	shpPath, err := findByExt(extractDir, ".shp")
	if err != nil {
		return "", eris.Wrap(err, "geo: locate .shp")
	}
	return shpPath, nil
}

func fetchToFile(ctx context.Context, url, dest string) error {
	client := &http.Client{Timeout: 10 * time.Minute}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return eris.Wrap(err, "build request")
	}

	resp, err := client.Do(req)
	if err != nil {
		return eris.Wrap(err, "fetch")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("fetch returned status %d", resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return eris.Wrap(err, "create file")
	}
	defer f.Close() //nolint:errcheck

	if _, err := io.Copy(f, resp.Body); err != nil {
		return eris.Wrap(err, "write file")
	}
	return nil
}

// unzipFlat extracts every regular file in the archive into destDir,
// discarding any directory structure. TIGER ZIPs are flat anyway.
func unzipFlat(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return eris.Wrap(err, "open zip")
	}
	defer r.Close() //nolint:errcheck

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		destPath := filepath.Join(destDir, filepath.Base(f.Name))

		rc, err := f.Open()
		if err != nil {
			return eris.Wrapf(err, "open zip entry %s", f.Name)
		}

		out, err := os.Create(destPath)
		if err != nil {
			_ = rc.Close()
			return eris.Wrapf(err, "create %s", destPath)
		}
		if _, err := io.Copy(out, rc); err != nil {
			_ = out.Close()
			_ = rc.Close()
			return eris.Wrapf(err, "extract %s", f.Name)
		}
		_ = out.Close()
		_ = rc.Close()
	}
	return nil
}

func findByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrap(err, "read directory")
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", eris.Errorf("no %s file in %s", ext, dir)
}
