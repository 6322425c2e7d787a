// woctl is the terminal front end for the work-order service. It talks to
// the HTTP API through the client package, so its view of the data follows
// the same refetch-after-mutation contract the browser UI uses.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bitfantasy/workorder/internal/client"
	"github.com/bitfantasy/workorder/internal/entity"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var serverURL string

	root := &cobra.Command{
		Use:           "woctl",
		Short:         "Work-order tracking CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&serverURL, "server", envOrDefault("WORKORDER_SERVER", "http://localhost:8080"), "server base URL")

	cli := func() *client.Client { return client.New(serverURL) }

	root.AddCommand(
		newHealthCmd(cli),
		newListCmd(cli),
		newCreateCmd(cli),
		newUpdateCmd(cli),
		newDeleteCmd(cli),
		newUploadCmd(cli),
	)
	return root
}

func newHealthCmd(cli func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli().Health(context.Background()); err != nil {
				return fmt.Errorf("server unreachable: %w", err)
			}
			fmt.Println(color.New(color.FgGreen).Sprint("ok"))
			return nil
		},
	}
}

func newListCmd(cli func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List work orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cli()
			if err := c.Refetch(context.Background()); err != nil {
				return err
			}
			printTable(c.Snapshot().Data)
			return nil
		},
	}
}

func newCreateCmd(cli func() *client.Client) *cobra.Command {
	var wo entity.WorkOrder

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a work order",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli().Create(context.Background(), wo); err != nil {
				return err
			}
			fmt.Printf("Created work order %s\n", wo.WorkOrderNo)
			return nil
		},
	}
	cmd.Flags().StringVar(&wo.WorkOrderNo, "no", "", "work order number (required)")
	cmd.Flags().StringVar(&wo.MachineNo, "machine", "", "machine number (required)")
	cmd.Flags().StringVar(&wo.OperatorName, "operator", "", "operator name (required)")
	cmd.Flags().IntVar(&wo.OrderQty, "order-qty", 0, "target quantity")
	cmd.Flags().IntVar(&wo.CompletedQty, "completed-qty", 0, "completed quantity")
	cmd.MarkFlagRequired("no")
	cmd.MarkFlagRequired("machine")
	cmd.MarkFlagRequired("operator")
	return cmd
}

func newUpdateCmd(cli func() *client.Client) *cobra.Command {
	var wo entity.WorkOrder

	cmd := &cobra.Command{
		Use:   "update <workOrderNo>",
		Short: "Update a work order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := cli().Update(context.Background(), args[0], wo)
			if err != nil {
				return err
			}
			fmt.Printf("Updated %s: remaining %s\n", result.WorkOrderNo, remainingString(result.Remaining))
			return nil
		},
	}
	cmd.Flags().StringVar(&wo.MachineNo, "machine", "", "machine number (required)")
	cmd.Flags().StringVar(&wo.OperatorName, "operator", "", "operator name (required)")
	cmd.Flags().IntVar(&wo.OrderQty, "order-qty", 0, "target quantity")
	cmd.Flags().IntVar(&wo.CompletedQty, "completed-qty", 0, "completed quantity")
	cmd.MarkFlagRequired("machine")
	cmd.MarkFlagRequired("operator")
	return cmd
}

func newDeleteCmd(cli func() *client.Client) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <workOrderNo>",
		Short: "Delete a work order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm(fmt.Sprintf("Delete work order %s?", args[0])) {
				fmt.Println("Aborted")
				return nil
			}
			if err := cli().Delete(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted work order %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func newUploadCmd(cli func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.xlsx>",
		Short: "Bulk-import work orders from a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			result, err := cli().Upload(context.Background(), args[0], f)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d imported, %d failed\n", result.Message, result.SuccessCount, result.ErrorCount)
			for _, e := range result.Errors {
				fmt.Printf("  %s\n", color.New(color.FgYellow).Sprint(e))
			}
			return nil
		},
	}
}

func printTable(wos []entity.WorkOrder) {
	if len(wos) == 0 {
		fmt.Println("No work orders")
		return
	}
	header := color.New(color.Bold)
	header.Printf("%-16s %-12s %-16s %10s %10s %10s\n",
		"WORK ORDER", "MACHINE", "OPERATOR", "ORDER", "COMPLETED", "REMAINING")
	for _, wo := range wos {
		fmt.Printf("%-16s %-12s %-16s %10d %10d %10s\n",
			wo.WorkOrderNo, wo.MachineNo, wo.OperatorName,
			wo.OrderQty, wo.CompletedQty, remainingString(wo.Remaining()))
	}
}

// remainingString 负数标红：超产是合法状态，但值得醒目
func remainingString(remaining int) string {
	if remaining < 0 {
		return color.New(color.FgRed).Sprintf("%d", remaining)
	}
	return fmt.Sprintf("%d", remaining)
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
