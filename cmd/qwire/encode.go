package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/danmuck/quasselwire/internal/protocol"
	"github.com/danmuck/quasselwire/internal/protocol/variant"
)

func newEncodeCmd(a *app) *cobra.Command {
	var (
		kind   string
		framed bool
		hexOut bool
	)
	cmd := &cobra.Command{
		Use:   "encode [file]",
		Short: "Encode a JSON object or array as a variant map or list",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(cmd, args, false)
			if err != nil {
				return err
			}
			out, err := a.encode(in, kind, framed)
			if err != nil {
				return err
			}
			if hexOut {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(out))
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "map", "top-level kind: map|list")
	cmd.Flags().BoolVar(&framed, "framed", true, "prefix the output with its length")
	cmd.Flags().BoolVar(&hexOut, "hex", false, "write hex instead of raw bytes")
	return cmd
}

func (a *app) encode(in []byte, kind string, framed bool) ([]byte, error) {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(in))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid json input: %w", err)
	}
	v, err := variant.From(raw)
	if err != nil {
		return nil, err
	}

	var out []byte
	switch {
	case kind == "map" && v.Type == variant.TypeVariantMap:
		out, err = a.proto.WriteVariantMap(v.Map)
	case kind == "list" && v.Type == variant.TypeVariantList:
		out, err = a.proto.WriteVariantList(v.List)
	default:
		return nil, fmt.Errorf("%w: --kind=%s does not match %s input", protocol.ErrUnsupportedVariantKind, kind, v.Type)
	}
	if err != nil {
		return nil, err
	}
	if framed {
		return a.proto.WritePacket(out)
	}
	return out, nil
}
