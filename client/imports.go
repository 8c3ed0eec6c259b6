package client

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/viant/brokerage/schema"
)

// Imports uploads tariff spreadsheets, admin only
type Imports struct {
	client *Client
}

// Upload sends a csv/xlsx file to the import endpoint of target. With dryRun the server
// validates rows without saving. Rows with errors are reported, not returned as an error.
func (i *Imports) Upload(ctx context.Context, target schema.ImportTarget, filename string, content io.Reader, dryRun bool) (*schema.ImportReport, error) {
	if !target.IsValid() {
		return nil, errors.Newf("unsupported import target: %q", target)
	}
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create form file")
	}
	if _, err = io.Copy(part, content); err != nil {
		return nil, errors.Wrapf(err, "failed to read %v", filename)
	}
	if err = writer.WriteField("dry_run", strconv.FormatBool(dryRun)); err != nil {
		return nil, err
	}
	if err = writer.Close(); err != nil {
		return nil, err
	}
	options := &RequestOptions{
		Method: http.MethodPost,
		Body:   bytes.NewReader(body.Bytes()),
		Header: http.Header{"Content-Type": {writer.FormDataContentType()}},
	}
	var report schema.ImportReport
	if err = i.client.call(ctx, target.Path(), options, &report, http.StatusOK, http.StatusMultiStatus); err != nil {
		return nil, err
	}
	return &report, nil
}
