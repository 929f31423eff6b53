package main

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cmalloy/options-desk/src/dbutils"
	"github.com/cmalloy/options-desk/src/marketdata"
	"github.com/cmalloy/options-desk/src/models"
	"github.com/cmalloy/options-desk/src/utils"
)

type RunArgs struct {
	ConfigPath string
	Contract   string
	Underlying string
	OptionType string
}

var runCmd = &cobra.Command{
	Use:   "go run src/cmd/fetch_option_greeks/main.go --underlying AAPL --option-type call",
	Short: "Fetch option Greeks: a provider snapshot for one contract, or Black-Scholes derived values for the nearest expiration chain",
	Run: func(cmd *cobra.Command, args []string) {
		configPath, err := cmd.Flags().GetString("config")
		if err != nil {
			log.Fatalf("error getting config: %v", err)
		}

		contract, err := cmd.Flags().GetString("contract")
		if err != nil {
			log.Fatalf("error getting contract: %v", err)
		}

		underlying, err := cmd.Flags().GetString("underlying")
		if err != nil {
			log.Fatalf("error getting underlying: %v", err)
		}

		optionType, err := cmd.Flags().GetString("option-type")
		if err != nil {
			log.Fatalf("error getting option-type: %v", err)
		}

		if contract == "" && underlying == "" {
			log.Fatalf("either --contract or --underlying is required")
		}

		if err := Run(RunArgs{
			ConfigPath: configPath,
			Contract:   contract,
			Underlying: underlying,
			OptionType: optionType,
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

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Contract", "Delta", "Gamma", "Theta", "Vega", "Rho"})

	if args.Contract != "" {
		greeks, err := gateway.FetchOptionGreeks(ctx, models.OptionSymbol(args.Contract))
		if err != nil {
			return fmt.Errorf("Run: failed to fetch greeks: %w", err)
		}

		table.Append(greeksRow(args.Contract, *greeks))
		table.Render()

		return nil
	}

	results, err := gateway.FetchOptionGreeksDerived(ctx, models.StockSymbol(args.Underlying), models.OptionType(args.OptionType))
	if err != nil {
		return fmt.Errorf("Run: failed to derive greeks: %w", err)
	}

	for _, result := range results {
		table.Append(greeksRow(result.Symbol.String(), result.Greeks))
	}

	table.Render()

	return nil
}

func greeksRow(contract string, greeks models.Greeks) []string {
	return []string{
		contract,
		fmt.Sprintf("%.4f", greeks.Delta),
		fmt.Sprintf("%.4f", greeks.Gamma),
		fmt.Sprintf("%.4f", greeks.Theta),
		fmt.Sprintf("%.4f", greeks.Vega),
		fmt.Sprintf("%.4f", greeks.Rho),
	}
}

func main() {
	runCmd.PersistentFlags().String("config", "config.yaml", "Path to the application config file.")
	runCmd.PersistentFlags().String("contract", "", "An option contract symbol, e.g. O:AAPL240119C00190000.")
	runCmd.PersistentFlags().String("underlying", "", "The underlying ticker for the derived chain path.")
	runCmd.PersistentFlags().String("option-type", "call", "call or put, used with --underlying.")

	runCmd.Execute()
}
