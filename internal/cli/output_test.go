package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/logmon/internal/model"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error(CodeInvalidFilter, "bad pattern", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E001", resp.Error.Code)
	assert.Equal(t, "bad pattern", resp.Error.Message)
}

func TestOutputFormatter_EmitText(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Emit([]int{1, 2}, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, "two items")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "two items\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	details := map[string]string{"dataset": "/A/B/USER"}
	err := formatter.Error(CodeCatalogUnavailable, "catalog unavailable", details)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E002]")
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			diag := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    out,
				ErrWriter: diag,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Processing %s", "f.root")

			assert.Empty(t, out.String())
			if tt.wantLog {
				assert.Contains(t, diag.String(), "Processing f.root")
			} else {
				assert.Empty(t, diag.String())
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))

	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "config", errors.New("inner")))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
}

func TestExitError_Unwrap(t *testing.T) {
	err := WrapExitError(ExitFailure, "report", fmt.Errorf("build: %w", model.ErrCatalogUnavailable))
	assert.True(t, errors.Is(err, model.ErrCatalogUnavailable))
	assert.Equal(t, "report: build: catalog unavailable", err.Error())
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, CodeInvalidFilter, ErrorCode(fmt.Errorf("x: %w", model.ErrInvalidFilter)))
	assert.Equal(t, CodeCatalogUnavailable, ErrorCode(model.ErrCatalogUnavailable))
	assert.Equal(t, CodeStoreUnavailable, ErrorCode(model.ErrStoreUnavailable))
	assert.Equal(t, CodeExtraction, ErrorCode(&model.ExtractionError{File: "f", Err: errors.New("x")}))
	assert.Equal(t, CodeIncomplete, ErrorCode(WrapExitError(ExitFailure, "ingest", errIncomplete)))
	assert.Equal(t, CodeUnknown, ErrorCode(errors.New("other")))
}
