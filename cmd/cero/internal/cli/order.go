package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lucianlature/cero/durable"
)

// newOrderCmd builds "cero order", a durable workflow demo: it starts an
// order-approval workflow that suspends on a signal, optionally waits
// before sending it (simulating an external approver), and reports the
// workflow's final durable state.
func newOrderCmd() *cobra.Command {
	var delay time.Duration
	var amount int

	cmd := &cobra.Command{
		Use:   "order",
		Short: "Run a durable order-approval workflow and approve it after a delay",
		Example: `  # Approve immediately
  cero order --amount 120

  # Simulate a slow approver
  cero order --amount 120 --approve-after 2s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrder(cmd, amount, delay)
		},
	}

	cmd.Flags().DurationVar(&delay, "approve-after", 0, "How long to wait before sending the approval signal")
	cmd.Flags().IntVar(&amount, "amount", 100, "Order amount carried as workflow input")
	return cmd
}

func runOrder(cmd *cobra.Command, amount int, delay time.Duration) error {
	store := durable.NewMemoryStore()
	registry := durable.NewWorkflowRegistry()
	registry.Register("order_approval", func() durable.WorkflowFunc {
		return orderApprovalWorkflow
	})

	h, err := durable.StartWorkflow(cmd.Context(), store, registry, "order_approval", "order-"+time.Now().Format("150405"), map[string]any{"amount": amount})
	if err != nil {
		return err
	}

	go func() {
		time.Sleep(delay)
		h.Signal("approve", nil)
	}()

	<-h.Done()
	if err := h.Err(); err != nil {
		return err
	}

	status, _ := h.State("status")
	fmt.Fprintln(cmd.OutOrStdout(), "workflow", h.ID(), "finished with status", status)
	return nil
}

func orderApprovalWorkflow(ctx *durable.Context) error {
	ctx.Set("status", "awaiting_approval")

	if _, err := ctx.WaitSignal("approve"); err != nil {
		ctx.Set("status", "timed_out")
		return err
	}

	ctx.Set("status", "approved")
	return nil
}
