package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kitia/cli/internal/app"
	"github.com/kitia/cli/internal/bus"
	"github.com/kitia/cli/pkg/util"
	"github.com/spf13/cobra"
)

// Dispatcher routes a message envelope to its handler.
type Dispatcher interface {
	Dispatch(ctx context.Context, env bus.Envelope) bus.Reply
}

// SendCmd sends one message through the router, the way extension pages do.
type SendCmd struct {
	router Dispatcher
}

// SendInput holds the message to send.
type SendInput struct {
	Type string
	Data string
}

// Send dispatches the message and prints the reply as JSON. A failed reply
// is printed and also returned as an error.
func (c SendCmd) Send(ctx context.Context, in SendInput) error {
	var data json.RawMessage
	if in.Data != "" {
		if !json.Valid([]byte(in.Data)) {
			return fmt.Errorf("message data is not valid JSON")
		}
		data = json.RawMessage(in.Data)
	}

	reply := c.router.Dispatch(ctx, bus.Envelope{Type: in.Type, Data: data})
	if err := util.PrintPrettyJSON(reply); err != nil {
		return err
	}
	if !reply.Success {
		return errors.New(reply.Error)
	}
	return nil
}

var sendCmd = &cobra.Command{
	Use:   "send <type> [json]",
	Short: "Send a message to the background router",
	Long: `Send a message to the background router and print its reply.

Examples:
  kit send getFavorites
  kit send toggleFavorite '{"id":"gpt-plan-negocio"}'
  kit send importFavorites '{"ids":["gpt-copywriter","gpt-finanzas"]}'`,
	Args: cobra.RangeArgs(1, 2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return app.MessageTypes(), cobra.ShellCompDirectiveNoFileComp
	},
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	in := SendInput{Type: args[0]}
	if len(args) == 2 {
		in.Data = args[1]
	}
	c := SendCmd{router: a.Router()}
	return c.Send(cmd.Context(), in)
}
