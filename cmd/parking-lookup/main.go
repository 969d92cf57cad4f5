// Command parking-lookup runs a single address and parking search for a
// coordinate and prints the result as JSON. It uses the same environment
// configuration as the API server.
//
//	parking-lookup --lat 37.7749 --lng -122.4194
//	parking-lookup --lat 52.3676 --lng 4.9041 --address-only
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"parksmart_backend/internal/geo"
	"parksmart_backend/internal/lookup"
	"parksmart_backend/platform/ai/gemini"
	"parksmart_backend/platform/ai/moonshot"
	"parksmart_backend/platform/config"
	"parksmart_backend/platform/logger"

	"github.com/spf13/cobra"
)

var (
	latitude    float64
	longitude   float64
	addressOnly bool
)

var rootCmd = &cobra.Command{
	Use:   "parking-lookup",
	Short: "Look up the address and nearby parking for a coordinate",
	Long: `Runs one reverse-geocoding request and one Maps-grounded parking
search against the configured AI service, exactly as the API server does
for a position fix, and prints the combined result as JSON.`,
	Args: cobra.NoArgs,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		if latitude < -90 || latitude > 90 {
			return fmt.Errorf("--lat must be within [-90, 90], got %v", latitude)
		}
		if longitude < -180 || longitude > 180 {
			return fmt.Errorf("--lng must be within [-180, 180], got %v", longitude)
		}
		return nil
	},
	RunE: runLookup,
}

func runLookup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}
	log := logger.NewWithWriter(cfg.Env, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	searchModel, err := gemini.NewModel(ctx, gemini.Config{APIKey: cfg.GetGeminiAPIKey(), Model: cfg.GetGeminiModel()})
	if err != nil {
		return fmt.Errorf("creating gemini model: %w", err)
	}

	opts := []lookup.Option{lookup.WithOptions(lookup.Options{
		RadiusKm:   cfg.GetSearchRadiusKm(),
		MaxResults: cfg.GetSearchMaxResults(),
		Timeout:    cfg.GetLookupTimeout(),
	})}
	if cfg.GetAddressProvider() == config.AddressProviderMoonshot {
		opts = append(opts, lookup.WithAddressModel(moonshot.NewModel(moonshot.Config{
			APIKey:          cfg.GetMoonshotAPIKey(),
			Model:           cfg.GetMoonshotModel(),
			DisableThinking: true,
			Timeout:         cfg.GetLookupTimeout(),
		})))
	}
	client := lookup.NewClient(searchModel, log, opts...)

	coord := geo.Coordinate{Latitude: latitude, Longitude: longitude}
	var out interface{}
	if addressOnly {
		out = map[string]string{"address": client.ResolveAddress(ctx, coord)}
	} else {
		result, err := client.Lookup(ctx, coord)
		if err != nil {
			return err
		}
		out = result
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func init() {
	rootCmd.Flags().Float64Var(&latitude, "lat", 0, "latitude in decimal degrees")
	rootCmd.Flags().Float64Var(&longitude, "lng", 0, "longitude in decimal degrees")
	rootCmd.Flags().BoolVar(&addressOnly, "address-only", false, "only resolve the address")
	_ = rootCmd.MarkFlagRequired("lat")
	_ = rootCmd.MarkFlagRequired("lng")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
