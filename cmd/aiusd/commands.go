package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aiusd/aiusd-agent/internal/chat"
)

func newRunCmd(a *app) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "run <instruction...>",
		Short: "Run a free-form instruction through the agent and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := chat.NewService(a.cfg)
			resp := svc.Instruct(cmd.Context(), strings.Join(args, " "), token)
			return report(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "MCP credential (defaults to MCP_AUTH_TOKEN)")
	return cmd
}

func newWithdrawCmd(a *app) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "withdraw <amount> [asset]",
		Short: "Withdraw from custody to the wallet (asset defaults to USDC)",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.RangeArgs(1, 2)(cmd, args); err != nil {
				return err
			}
			return validateAmount(args[0])
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			asset := ""
			if len(args) > 1 {
				asset = strings.ToUpper(args[1])
			}
			svc := chat.NewService(a.cfg)
			return report(cmd.OutOrStdout(), svc.Withdraw(cmd.Context(), args[0], asset, token))
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "MCP credential (defaults to MCP_AUTH_TOKEN)")
	return cmd
}

func newToolsCmd(a *app) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the MCP server's tools as LLM function schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defs, err := chat.NewService(a.cfg).Tools(cmd.Context(), token)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), defs)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "MCP credential (defaults to MCP_AUTH_TOKEN)")
	return cmd
}

func validateAmount(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return fmt.Errorf("invalid amount %q: must be a positive number", s)
	}
	return nil
}

// report prints resp and turns a failed run into a command error.
func report(w io.Writer, resp *chat.Response) error {
	if err := printJSON(w, resp); err != nil {
		return err
	}
	if !resp.Success {
		return errors.New(resp.Error)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
