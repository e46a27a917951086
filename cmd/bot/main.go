package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reward_recognition_bot/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bot",
		Short: "Reward and recognition bot for team chats",
		Long: `bot runs nomination cycles for teams in Telegram group chats.
A champion configures awards and cycles, the scheduler rolls cycles over
according to their recurrence and reminds teams to nominate.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.SweepCmd())
	rootCmd.AddCommand(cli.RemindCmd())
	rootCmd.AddCommand(cli.MigrateCmd())
	rootCmd.AddCommand(cli.CyclesCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
