package validation

import (
	"bytes"
	"fmt"
	"image"

	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/webp"

	"3tcapital/ms_extraccion_gastos/internal/core/expense"
)

func (v *Validator) validateImage(data []byte, mimeType string) (expense.FileInfo, error) {
	var cfg image.Config
	var err error
	if mimeType == "image/webp" {
		cfg, err = webp.DecodeConfig(bytes.NewReader(data))
	} else {
		cfg, _, err = image.DecodeConfig(bytes.NewReader(data))
	}
	if err != nil {
		return expense.FileInfo{}, expense.NewTerminal(expense.CodeCannotOpenFile,
			"cannot decode image header", err)
	}

	if cfg.Width < v.limits.MinImageWidth || cfg.Height < v.limits.MinImageHeight {
		return expense.FileInfo{}, expense.NewTerminal(expense.CodeLowResolution,
			fmt.Sprintf("image is %dx%dpx, minimum is %dx%dpx",
				cfg.Width, cfg.Height, v.limits.MinImageWidth, v.limits.MinImageHeight), nil)
	}

	return expense.FileInfo{Pages: 1, Width: cfg.Width, Height: cfg.Height}, nil
}
