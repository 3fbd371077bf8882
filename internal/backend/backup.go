package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	pkgerrors "github.com/rcoutinho/pdvgo/pkg/errors"
)

// BackupStatsSummary fetches the database row counts and last backup time.
func (c *Client) BackupStatsSummary(ctx context.Context) (*BackupStats, error) {
	var stats BackupStats
	err := c.do(ctx, requestSpec{
		operation: "backup_stats",
		method:    http.MethodGet,
		path:      "/backup/stats",
	}, &stats)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListBackups lists the archives stored on the server.
func (c *Client) ListBackups(ctx context.Context) ([]BackupFile, error) {
	var files []BackupFile
	err := c.do(ctx, requestSpec{
		operation: "backup_list",
		method:    http.MethodGet,
		path:      "/backup/list",
	}, &files)
	if err != nil {
		return nil, err
	}
	return files, nil
}

// CreateBackup asks the server to snapshot its database now.
func (c *Client) CreateBackup(ctx context.Context) error {
	return c.do(ctx, requestSpec{
		operation: "backup_create",
		method:    http.MethodPost,
		path:      "/backup/create",
	}, nil)
}

// DeleteBackup removes a server-side archive.
func (c *Client) DeleteBackup(ctx context.Context, filename string) error {
	return c.do(ctx, requestSpec{
		operation: "backup_delete",
		method:    http.MethodDelete,
		path:      "/backup/" + filename,
	}, nil)
}

// DownloadBackup streams an archive into dst.
func (c *Client) DownloadBackup(ctx context.Context, filename string, dst io.Writer) error {
	return c.do(ctx, requestSpec{
		operation: "backup_download",
		method:    http.MethodGet,
		path:      "/backup/download/" + filename,
	}, dst)
}

// RestoreBackup uploads an archive and replaces the backend database with
// its contents. Callers must treat success as a full state reset.
func (c *Client) RestoreBackup(ctx context.Context, filename string, archive io.Reader) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build restore upload")
	}
	if _, err := io.Copy(part, archive); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("read archive %s", filename))
	}
	if err := writer.Close(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finalize restore upload")
	}

	return c.do(ctx, requestSpec{
		operation: "backup_restore",
		method:    http.MethodPost,
		path:      "/backup/restore",
		rawBody:   &buf,
		rawType:   writer.FormDataContentType(),
	}, nil)
}
