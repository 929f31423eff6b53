package main

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cmalloy/options-desk/src/dbutils"
	"github.com/cmalloy/options-desk/src/indicators"
	"github.com/cmalloy/options-desk/src/marketdata"
	"github.com/cmalloy/options-desk/src/models"
	"github.com/cmalloy/options-desk/src/utils"
)

type RunArgs struct {
	ConfigPath string
	Ticker     string
	Multiplier int
	Timespan   string
	From       string
	To         string
	CsvOut     string
}

var runCmd = &cobra.Command{
	Use:   "go run src/cmd/fetch_market_data/main.go --ticker AAPL --from 2024-01-02 --to 2024-01-31",
	Short: "Fetch daily OHLCV bars for a ticker, serving from the local cache when possible",
	Run: func(cmd *cobra.Command, args []string) {
		configPath, err := cmd.Flags().GetString("config")
		if err != nil {
			log.Fatalf("error getting config: %v", err)
		}

		ticker, err := cmd.Flags().GetString("ticker")
		if err != nil {
			log.Fatalf("error getting ticker: %v", err)
		}

		multiplier, err := cmd.Flags().GetInt("multiplier")
		if err != nil {
			log.Fatalf("error getting multiplier: %v", err)
		}

		timespan, err := cmd.Flags().GetString("timespan")
		if err != nil {
			log.Fatalf("error getting timespan: %v", err)
		}

		from, err := cmd.Flags().GetString("from")
		if err != nil {
			log.Fatalf("error getting from: %v", err)
		}

		to, err := cmd.Flags().GetString("to")
		if err != nil {
			log.Fatalf("error getting to: %v", err)
		}

		csvOut, err := cmd.Flags().GetString("csv")
		if err != nil {
			log.Fatalf("error getting csv: %v", err)
		}

		if err := Run(RunArgs{
			ConfigPath: configPath,
			Ticker:     ticker,
			Multiplier: multiplier,
			Timespan:   timespan,
			From:       from,
			To:         to,
			CsvOut:     csvOut,
		}); err != nil {
			log.Fatalf("Error: %v", err)
		}
	},
}

func Run(args RunArgs) error {
	ctx := context.Background()

	if err := utils.InitEnvironmentVariables(); err != nil {
		log.Fatalf("error loading environment variables: %v", err)
	}

	apiKey := os.Getenv("POLYGON_API_KEY")
	if apiKey == "" {
		log.Fatalf("missing POLYGON_API_KEY environment variable")
	}

	config, err := utils.LoadAppConfig(args.ConfigPath)
	if err != nil {
		return fmt.Errorf("Run: failed to load app config: %w", err)
	}

	db, err := dbutils.InitPostgres(config.Database.Host, config.Database.Port, config.Database.User, config.Database.Password, config.Database.DBName)
	if err != nil {
		return fmt.Errorf("Run: failed to init postgres: %w", err)
	}

	store := marketdata.NewPostgresMarketStore(db)
	provider := marketdata.NewPolygonProvider(apiKey)
	gateway := marketdata.NewGateway(store, provider, config.RiskFreeRate)

	bars, err := gateway.FetchAggregates(ctx, models.StockSymbol(args.Ticker), args.Multiplier, args.Timespan, args.From, args.To)
	if err != nil {
		return fmt.Errorf("Run: failed to fetch aggregates: %w", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Date", "Open", "High", "Low", "Close", "Volume"})

	for _, bar := range bars {
		table.Append([]string{
			bar.Date.Format("2006-01-02"),
			fmt.Sprintf("%.2f", bar.Open),
			fmt.Sprintf("%.2f", bar.High),
			fmt.Sprintf("%.2f", bar.Low),
			fmt.Sprintf("%.2f", bar.Close),
			fmt.Sprintf("%d", bar.Volume),
		})
	}

	table.Render()

	if vol, err := indicators.RealizedVolatility(bars); err == nil {
		fmt.Printf("Realized volatility (annualized): %.2f%%\n", vol*100)
	}

	if args.CsvOut != "" {
		f, err := os.Create(args.CsvOut)
		if err != nil {
			return fmt.Errorf("Run: failed to create %s: %w", args.CsvOut, err)
		}
		defer f.Close()

		if err := marketdata.ExportAggregatesCSV(f, bars); err != nil {
			return fmt.Errorf("Run: failed to export csv: %w", err)
		}

		log.Infof("wrote %d bars to %s", len(bars), args.CsvOut)
	}

	return nil
}

func main() {
	runCmd.PersistentFlags().String("config", "config.yaml", "Path to the application config file.")
	runCmd.PersistentFlags().String("ticker", "", "The stock ticker to fetch.")
	runCmd.PersistentFlags().Int("multiplier", 1, "The size of the timespan multiplier.")
	runCmd.PersistentFlags().String("timespan", "day", "The size of the time window, e.g. day or minute.")
	runCmd.PersistentFlags().String("from", "", "The start date, YYYY-MM-DD.")
	runCmd.PersistentFlags().String("to", "", "The end date, YYYY-MM-DD.")
	runCmd.PersistentFlags().String("csv", "", "Optional path to export the bars as csv.")

	runCmd.MarkPersistentFlagRequired("ticker")
	runCmd.MarkPersistentFlagRequired("from")
	runCmd.MarkPersistentFlagRequired("to")

	runCmd.Execute()
}
