package app

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/mr-tron/base58"

	"slotguard/internal/bridge"
	"slotguard/internal/source"
	"slotguard/internal/verify"
)

// Inspect fetches one transaction from a single endpoint and dumps its raw
// structure alongside any decoded bridge instruction. Meant for debugging
// decoder coverage, so it deliberately skips the consensus machinery.
func (a *App) Inspect(ctx context.Context, opts InspectOptions) error {
	if err := verify.ValidateSignature(opts.Signature); err != nil {
		return err
	}

	endpoint := opts.Endpoint
	if endpoint == "" {
		if len(a.Config.Sources.Endpoints) == 0 {
			return errors.New("no source endpoints configured")
		}
		endpoint = a.Config.Sources.Endpoints[0]
	}

	client := source.NewRPC(source.RPCOptions{
		Endpoint:  endpoint,
		Timeout:   a.Config.Sources.RequestTimeout,
		UserAgent: a.Config.Sources.UserAgent,
	}, a.Logger)

	tx, err := client.Transaction(ctx, opts.Signature)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Signature: %s\n", opts.Signature)
	fmt.Fprintf(os.Stdout, "Endpoint:  %s\n", endpoint)
	fmt.Fprintf(os.Stdout, "Slot:      %d\n", tx.Slot)
	fmt.Fprintf(os.Stdout, "Success:   %t\n\n", tx.Success)

	fmt.Fprintln(os.Stdout, "Account keys:")
	for i, key := range tx.AccountKeys {
		marker := ""
		switch key {
		case bridge.WormholeTokenBridge:
			marker = "  <- wormhole token bridge"
		case bridge.WormholeCore:
			marker = "  <- wormhole core"
		}
		fmt.Fprintf(os.Stdout, "  [%2d] %s%s\n", i, key, marker)
	}

	fmt.Fprintln(os.Stdout, "\nInstructions:")
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "  #\tProgram\tBytes\tData (hex, first 32)")
	for i, ix := range tx.Instructions {
		program := "?"
		if ix.ProgramIndex >= 0 && ix.ProgramIndex < len(tx.AccountKeys) {
			program = tx.AccountKeys[ix.ProgramIndex]
		}
		raw, decodeErr := base58.Decode(ix.Data)
		preview := ""
		size := 0
		if decodeErr == nil {
			size = len(raw)
			if len(raw) > 32 {
				raw = raw[:32]
			}
			preview = hex.EncodeToString(raw)
		} else {
			preview = "(not base58)"
		}
		fmt.Fprintf(writer, "  %d\t%s\t%d\t%s\n", i, shorten(program), size, preview)
	}
	writer.Flush()

	parsed := bridge.Decode(tx.AccountKeys, tx.Instructions)
	if parsed == nil {
		fmt.Fprintln(os.Stdout, "\nNo bridge instruction detected.")
		return nil
	}

	fmt.Fprintln(os.Stdout, "\nBridge instruction:")
	fmt.Fprintf(os.Stdout, "  Bridge:      %s\n", parsed.Bridge)
	fmt.Fprintf(os.Stdout, "  Instruction: %s\n", parsed.InstructionName())
	fmt.Fprintf(os.Stdout, "  Direction:   %s\n", parsed.Direction())
	if amount, ok := parsed.HumanAmount(); ok {
		fmt.Fprintf(os.Stdout, "  Amount:      %s tokens\n", amount.String())
	}
	if chain, ok := parsed.TargetChain(); ok {
		name, _ := parsed.TargetChainName()
		fmt.Fprintf(os.Stdout, "  Target:      %s (chain %d)\n", name, chain)
	}
	if recipient, ok := parsed.Recipient(); ok {
		fmt.Fprintf(os.Stdout, "  Recipient:   0x%s\n", hex.EncodeToString(recipient))
	}
	if parsed.Instruction.Op == bridge.OpCompleteTransfer {
		fmt.Fprintf(os.Stdout, "  Native:      %t\n", parsed.Instruction.IsNative)
	}
	return nil
}
