package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucianlature/cero/attribute"
	"github.com/lucianlature/cero/task"
	"github.com/lucianlature/cero/workflow"
)

// newRunCmd builds the "cero run" command, which executes a small
// reserve/charge/ship chain: charge fails when --amount exceeds 100,
// demonstrating breakpoint and rollback policy.
func newRunCmd() *cobra.Command {
	var amount int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a sample reserve/charge/ship chain",
		Example: `  # A charge that succeeds
  cero run --amount 50

  # A charge that fails and rolls back the reservation
  cero run --amount 500`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSample(cmd, amount)
		},
	}

	cmd.Flags().IntVar(&amount, "amount", 50, "Order amount in dollars; charges over 100 fail")
	return cmd
}

func runSample(cmd *cobra.Command, amount int) error {
	reserved := false

	charge := task.Define("charge_card").
		Attribute(attribute.Required("amount", attribute.KindInteger).
			Validate("numeric", nil)).
		HandlerFunc(func(ctx context.Context, t *task.Instance) error {
			amt, _ := t.Attr("amount")
			if amt.(int) > 100 {
				return t.Fail("card declined: amount exceeds limit", map[string]any{"amount": amt})
			}
			fmt.Fprintln(cmd.OutOrStdout(), "charged card for", amt)
			return nil
		})

	// Rollback undoes the reservation if charge fails and the chain rolls
	// back; reserveHandle (below) implements both Work and Rollback, sharing
	// the reserved flag through a pointer.
	reserveWithRollback := task.Define("reserve_inventory").
		Handler(func() task.Handle { return &reserveHandle{reserved: &reserved} })

	steps := []workflow.Step{
		workflow.Task(reserveWithRollback, nil),
		workflow.Task(charge, map[string]any{"amount": amount}),
		workflow.Task(task.Define("ship_order").HandlerFunc(func(ctx context.Context, t *task.Instance) error {
			fmt.Fprintln(cmd.OutOrStdout(), "shipped order")
			return nil
		}), nil),
	}

	c, err := workflow.Run(cmd.Context(), steps)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "chain", c.ID(), "finished with status", c.AggregateStatus())
	for _, r := range c.Results() {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-16s %-8s rolled_back=%v\n", r.TaskType(), r.Status(), r.RolledBack())
	}
	return nil
}

type reserveHandle struct {
	reserved *bool
}

func (h *reserveHandle) Work(ctx context.Context, t *task.Instance) error {
	*h.reserved = true
	t.Context().Set("reserved", true)
	return nil
}

func (h *reserveHandle) Rollback(ctx context.Context, t *task.Instance) error {
	*h.reserved = false
	t.Context().Set("reserved", false)
	return nil
}
