package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bft-labs/skyship/internal/car"
	"github.com/bft-labs/skyship/internal/domain"
	"github.com/bft-labs/skyship/internal/frame"
	"github.com/bft-labs/skyship/internal/record"
)

func newDecodeFrameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode-frame <file>",
		Short: "Decode one captured relay message and print what it holds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return describeFrame(cmd.OutOrStdout(), raw)
		},
	}
}

func describeFrame(w io.Writer, raw []byte) error {
	f, err := frame.Decode(raw)
	if err != nil {
		var fe *domain.FrameError
		if errors.As(err, &fe) && fe.Kind == domain.FrameRemote {
			fmt.Fprintf(w, "error frame: %s %s\n", fe.RemoteKind, fe.Message)
			return nil
		}
		return err
	}
	fmt.Fprintf(w, "type: %s (%q), body: %d bytes\n", f.Type, f.Tag, len(f.Body))
	if f.Type != domain.MessageCommit {
		return nil
	}

	c, err := frame.DecodeCommit(f.Body)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "seq: %d\nrepo: %s\nrev: %s\ntime: %s\ntoo big: %t\nblocks: %d bytes\n",
		c.Seq, c.Repo, c.Rev, c.Time.Format("2006-01-02T15:04:05.000Z07:00"), c.TooBig, len(c.Blocks))

	var archive *car.Archive
	for _, op := range c.Ops {
		fmt.Fprintf(w, "op: %s %s %s\n", op.Action, op.Path, op.CID)
		if op.Action != domain.ActionCreate || op.Collection() != domain.PostCollection || !op.CID.Defined() {
			continue
		}
		if archive == nil {
			if archive, err = car.Parse(c.Blocks); err != nil {
				fmt.Fprintf(w, "  archive: %v\n", err)
				return nil
			}
		}
		block, err := archive.Find(op.CID)
		if err != nil {
			fmt.Fprintf(w, "  %v\n", err)
			continue
		}
		rec, err := record.Decode(block)
		if err != nil {
			fmt.Fprintf(w, "  %v\n", err)
			continue
		}
		fmt.Fprintf(w, "  text: %q\n", rec.Text)
	}
	return nil
}
