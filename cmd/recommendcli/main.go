package main

// Run one recommendation against the configured catalog and provider:
//   go run ./cmd/recommendcli -message "rainy day, need something warm" -lat 40.98 -lon 29.02

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"discovery-backend/internal/bootstrap"
	"discovery-backend/internal/geo"
	"discovery-backend/internal/shared/config"
	"discovery-backend/internal/shared/telemetry"
)

func main() {
	message := flag.String("message", "", "Free-form request text")
	lat := flag.Float64("lat", 0, "Origin latitude (optional)")
	lon := flag.Float64("lon", 0, "Origin longitude (optional)")
	provider := flag.String("provider", "", "Override LLM_PROVIDER")
	model := flag.String("model", "", "Override LLM_MODEL")
	outPath := flag.String("out", "", "Path to write JSON output (optional)")
	flag.Parse()

	if strings.TrimSpace(*message) == "" {
		exitErr("message is required")
	}

	cfg, err := config.Load()
	if err != nil {
		exitErr(fmt.Sprintf("load config: %v", err))
	}
	if *provider != "" {
		cfg.LLM.Provider = *provider
	}
	if *model != "" {
		cfg.LLM.Model = *model
	}
	telemetry.SetOutput(os.Stderr, cfg.Log.Level)

	origin, err := originFromFlags(*lat, *lon)
	if err != nil {
		exitErr(err.Error())
	}

	ctx := context.Background()
	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		exitErr(fmt.Sprintf("bootstrap: %v", err))
	}
	defer app.Close()

	res := app.RecommendService.ClassifyAndRecommend(ctx, *message, origin)

	pretty, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}
	pretty = append(pretty, '\n')

	if *outPath != "" {
		if err := os.WriteFile(*outPath, pretty, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}
	if _, err := os.Stdout.Write(pretty); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
}

// originFromFlags treats 0,0 as no origin.
func originFromFlags(lat, lon float64) (*geo.Coordinate, error) {
	if lat == 0 && lon == 0 {
		return nil, nil
	}
	return geo.NewCoordinate(lat, lon)
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
