package main

import (
	"github.com/spf13/cobra"

	"virtualtourist/internal/app"
)

func newWorkerCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Fetch albums for pins announced on the pin topic",
		Long: `Consumes pin.dropped events from Kafka and fetches the photo album of
each pin. Offsets are committed once the pin is loaded. Requires KAFKA_BROKER.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app.App) error {
				worker, consumer, err := a.NewWorker()
				if err != nil {
					return err
				}
				ctx := cmd.Context()

				consumer.StartConsuming(ctx)
				// Stop closes the message channel once ctx is done
				go func() {
					<-ctx.Done()
					consumer.Stop()
				}()

				worker.Run(ctx)
				consumer.Stop()
				return nil
			})
		},
	}
}
