package main

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/danmuck/quasselwire/internal/protocol/frame"
	"github.com/danmuck/quasselwire/internal/render"
)

func newDecodeCmd(a *app) *cobra.Command {
	var (
		format string
		framed bool
		hexIn  bool
	)
	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode packets from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}
			in, err := readInput(cmd, args, hexIn)
			if err != nil {
				return err
			}
			return a.decode(cmd.OutOrStdout(), in, f, framed)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json|msgpack|cbor")
	cmd.Flags().BoolVar(&framed, "framed", true, "input is a sequence of length-prefixed packets")
	cmd.Flags().BoolVar(&hexIn, "hex", false, "input is hex encoded")
	return cmd
}

func (a *app) decode(out io.Writer, in []byte, format render.Format, framed bool) error {
	if !framed {
		return a.decodeOne(out, in, format, 0)
	}
	r := bytes.NewReader(in)
	for i := 0; ; i++ {
		payload, err := frame.ReadFrame(r, a.cfg.Codec.FrameLimits())
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("packet %d: %w", i, err)
		}
		if err := a.decodeOne(out, payload, format, i); err != nil {
			return err
		}
	}
}

func (a *app) decodeOne(out io.Writer, payload []byte, format render.Format, index int) error {
	v, err := a.proto.ReadVariant(payload)
	if err != nil {
		return fmt.Errorf("packet %d: %w", index, err)
	}
	a.logger.Debug().Int("packet", index).Int("bytes", len(payload)).Stringer("type", v.Type).Msg("decoded packet")
	encoded, err := render.Marshal(format, v)
	if err != nil {
		return err
	}
	if _, err := out.Write(encoded); err != nil {
		return err
	}
	if format == render.FormatJSON {
		_, err = io.WriteString(out, "\n")
	}
	return err
}

func readInput(cmd *cobra.Command, args []string, hexIn bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 && args[0] != "-" {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return nil, err
	}
	if !hexIn {
		return data, nil
	}
	decoded, err := hex.DecodeString(string(bytes.TrimSpace(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return decoded, nil
}
