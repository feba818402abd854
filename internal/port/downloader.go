package port

import "context"

type Downloader interface {
	Download(ctx context.Context, url, outputDir string) (localPath string, err error)
}
