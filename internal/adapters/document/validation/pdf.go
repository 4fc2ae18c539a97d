package validation

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"3tcapital/ms_extraccion_gastos/internal/core/expense"
)

func (v *Validator) validatePDF(data []byte) (expense.FileInfo, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdfCtx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		if isEncryptionError(err) {
			return expense.FileInfo{}, expense.NewTerminal(expense.CodeFileEncrypted,
				"PDF is password protected", err)
		}
		return expense.FileInfo{}, expense.NewTerminal(expense.CodeMalformedFile,
			"cannot parse PDF structure", err)
	}

	if err := api.ValidateContext(pdfCtx); err != nil {
		if isEncryptionError(err) {
			return expense.FileInfo{}, expense.NewTerminal(expense.CodeFileEncrypted,
				"PDF is password protected", err)
		}
		return expense.FileInfo{}, expense.NewTerminal(expense.CodeMalformedFile,
			"PDF failed structural validation", err)
	}

	if pdfCtx.PageCount > v.limits.MaxPDFPages {
		return expense.FileInfo{}, expense.NewTerminal(expense.CodeTooManyPages,
			fmt.Sprintf("PDF has %d pages, limit is %d", pdfCtx.PageCount, v.limits.MaxPDFPages), nil)
	}

	dims, err := pdfCtx.PageDims()
	if err != nil {
		return expense.FileInfo{}, expense.NewTerminal(expense.CodeMalformedFile,
			"cannot read PDF page dimensions", err)
	}

	info := expense.FileInfo{Pages: pdfCtx.PageCount}
	if len(dims) > 0 {
		info.Width = int(dims[0].Width)
		info.Height = int(dims[0].Height)
		if info.Width < v.limits.MinPDFWidth || info.Height < v.limits.MinPDFHeight {
			return expense.FileInfo{}, expense.NewTerminal(expense.CodeLowResolution,
				fmt.Sprintf("first page is %dx%dpt, minimum is %dx%dpt",
					info.Width, info.Height, v.limits.MinPDFWidth, v.limits.MinPDFHeight), nil)
		}
	}
	return info, nil
}

// pdfcpu surfaces encryption both as a sentinel and, in some code
// paths, only in the error text.
func isEncryptionError(err error) bool {
	if errors.Is(err, pdfcpu.ErrWrongPassword) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "password")
}
