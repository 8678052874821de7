package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Gunvolt24/shop_pricing/pkg/validate"
)

// CLI-приложение для проверки описаний промокодов перед загрузкой.
func main() {
	inputPath := flag.String("in", "", "path to input (.json object or array, .jsonl). If empty, reads JSONL from stdin.")
	formatStr := flag.String("format", "auto", "input format: auto|json|jsonl")
	quiet := flag.Bool("quiet", false, "do not print per-record reasons for invalid records")
	flag.Parse()

	ctx := context.Background()
	discountValidator := validate.NewDiscountValidator()

	format := validate.InputFormat(*formatStr)

	var errOut io.Writer = os.Stderr
	if *quiet {
		errOut = nil
	}

	path := *inputPath
	// stdin вариант: считаем, что jsonl
	if path == "" {
		path = "/dev/stdin"
		if format == validate.FormatAuto {
			format = validate.FormatJSONL
		}
	}

	report, err := validate.ValidateFile(ctx, discountValidator, path, format, os.Stdout, errOut)
	if err != nil {
		fmt.Fprintf(os.Stderr, "validation: %v (%s)\n", err, report)
		os.Exit(1)
	}
	if report.Invalid > 0 {
		// набор с отказами целиком к загрузке не готов
		fmt.Fprintf(os.Stderr, "validation failed (%s)\n", report)
		os.Exit(2)
	}
	fmt.Fprintf(os.Stderr, "validation ok (%s)\n", report)
}
