package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/onoo-labs/marketing-assistant/internal/bootstrap"
	"github.com/onoo-labs/marketing-assistant/internal/coordinator"
	"github.com/onoo-labs/marketing-assistant/internal/generation"
	"github.com/onoo-labs/marketing-assistant/internal/imaging"
	"github.com/onoo-labs/marketing-assistant/internal/project/domain"
)

func (a *app) voiceCmd() *cobra.Command {
	var in, out string
	var linger time.Duration
	cmd := &cobra.Command{
		Use:   "voice",
		Short: "Hold a voice consultation from 16 kHz PCM audio",
		Long: "Streams 16-bit mono 16 kHz PCM from --in (or stdin) to the voice consultant, " +
			"prints the live transcription and writes the 24 kHz PCM reply to --out.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, true, func(ctx context.Context, s *bootstrap.Session) error {
				var src io.Reader = cmd.InOrStdin()
				if in != "" && in != "-" {
					f, err := os.Open(in)
					if err != nil {
						return err
					}
					defer f.Close()
					src = f
				}

				var sink io.Writer = io.Discard
				if out != "" {
					f, err := os.Create(out)
					if err != nil {
						return err
					}
					defer f.Close()
					sink = f
				}

				session, err := s.Generator.ConnectVoice(ctx, generation.VoiceConfig{
					Model:             s.Models.Voice,
					SystemInstruction: coordinator.VoiceInstruction,
				})
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				g, gctx := errgroup.WithContext(ctx)
				g.Go(func() error {
					// Closing the session is what ends Voice.Run.
					defer session.Close()
					if err := generation.StreamAudio(gctx, session, src, 0); err != nil {
						return err
					}
					select {
					case <-time.After(linger):
					case <-gctx.Done():
					}
					return nil
				})
				g.Go(func() error {
					turns := &turnPrinter{w: w, history: func() []domain.VoiceTurn {
						return s.Store.State().VoiceConsultant.History
					}}
					return userError(s.Voice.Run(gctx, session, func(_ coordinator.Transcript, pcm []byte) {
						if len(pcm) > 0 {
							_, _ = sink.Write(pcm)
						}
						turns.flush()
					}))
				})
				return g.Wait()
			})
		},
	}
	cmd.Flags().StringVar(&in, "in", "-", "input PCM file, - for stdin")
	cmd.Flags().StringVar(&out, "out", "", "write the spoken reply (PCM) to this file")
	cmd.Flags().DurationVar(&linger, "linger", 5*time.Second, "how long to wait for the reply after the input ends")
	return cmd
}

// turnPrinter writes each user/model pair once it is committed to the
// project's voice history.
type turnPrinter struct {
	w       io.Writer
	history func() []domain.VoiceTurn
	printed int
}

func (p *turnPrinter) flush() {
	h := p.history()
	if len(h) < p.printed {
		p.printed = 0
	}
	for ; p.printed+1 < len(h); p.printed += 2 {
		fmt.Fprintf(p.w, "\n[أنت] %s\n[المستشار] %s\n", h[p.printed].Content, h[p.printed+1].Content)
	}
}

func (a *app) imageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Crop and watermark local images",
	}

	var ratio, cropOut string
	crop := &cobra.Command{
		Use:   "crop <file>",
		Short: "Center-crop an image to an aspect ratio",
		Args:  cobra.ExactArgs(1),
		// Works on files only; no project is needed.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readImage(args[0])
			if err != nil {
				return err
			}
			ar, err := imaging.ParseAspectRatio(ratio)
			if err != nil {
				return err
			}
			img, err := imaging.Crop(src, ar.Value())
			if err != nil {
				return err
			}
			return os.WriteFile(cropOut, img.Data, 0o644)
		},
	}
	crop.Flags().StringVar(&ratio, "ratio", string(imaging.RatioSquare), "aspect ratio: 1:1, 16:9 or 9:16")
	crop.Flags().StringVarP(&cropOut, "out", "o", "cropped.png", "output PNG")

	var primary, secondary, markOut string
	var useSaved bool
	watermark := &cobra.Command{
		Use:   "watermark <file>",
		Short: "Stack the logos on the bottom-right corner of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := readImage(args[0])
			if err != nil {
				return err
			}
			p, err := optionalImage(primary)
			if err != nil {
				return err
			}
			sec, err := optionalImage(secondary)
			if err != nil {
				return err
			}

			run := func(ctx context.Context, comp *imaging.Compositor) error {
				img, err := comp.Watermark(ctx, base, p, sec)
				if err != nil {
					return err
				}
				return os.WriteFile(markOut, img.Data, 0o644)
			}

			if !useSaved {
				return run(cmd.Context(), imaging.NewCompositor(a.log))
			}
			return a.withSession(cmd, false, func(ctx context.Context, s *bootstrap.Session) error {
				logos := s.Store.State().Logos
				if p == nil && logos.Primary != "" {
					if img, err := imaging.ParseDataURI(logos.Primary); err == nil {
						p = &img
					}
				}
				if sec == nil && logos.Secondary != "" {
					if img, err := imaging.ParseDataURI(logos.Secondary); err == nil {
						sec = &img
					}
				}
				return run(ctx, s.Compositor)
			})
		},
	}
	watermark.Flags().StringVar(&primary, "primary", "", "primary (product) logo file")
	watermark.Flags().StringVar(&secondary, "secondary", "", "secondary (company) logo file")
	watermark.Flags().BoolVar(&useSaved, "saved", false, "use the project's saved logos for missing ones")
	watermark.Flags().StringVarP(&markOut, "out", "o", "watermarked.png", "output PNG")

	cmd.AddCommand(crop, watermark)
	return cmd
}

func readImage(path string) (imaging.RasterImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return imaging.RasterImage{}, err
	}
	return imaging.RasterImage{Data: data}, nil
}

func optionalImage(path string) (*imaging.RasterImage, error) {
	if path == "" {
		return nil, nil
	}
	img, err := readImage(path)
	if err != nil {
		return nil, err
	}
	return &img, nil
}
