package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/onoo-labs/marketing-assistant/internal/bootstrap"
	"github.com/onoo-labs/marketing-assistant/internal/coordinator"
	"github.com/onoo-labs/marketing-assistant/internal/generation"
	"github.com/onoo-labs/marketing-assistant/internal/imaging"
	"github.com/onoo-labs/marketing-assistant/internal/project/domain"
)

func sessionID() string {
	return uuid.NewString()
}

// userError prints the localized message of err when it has one.
func userError(err error) error {
	if err == nil {
		return nil
	}
	if msg := generation.UserMessage(err, ""); msg != "" {
		return errors.New(msg)
	}
	return err
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, false, func(ctx context.Context, s *bootstrap.Session) error {
				st := s.Store.State()
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "product:      %s (%s)\n", st.ProductInfo.Name, st.ProductInfo.Company)
				fmt.Fprintf(w, "active tab:   %s\n", st.ActiveTab)
				fmt.Fprintf(w, "chat:         %d messages\n", len(st.ChatHistory))
				fmt.Fprintf(w, "post:         goal=%q topic=%q text=%t image=%t\n",
					st.PostGenerator.PostGoal, st.PostGenerator.Topic,
					st.PostGenerator.GeneratedPost != "", st.PostGenerator.GeneratedImage != "")
				fmt.Fprintf(w, "ad:           ratio=%s image=%t\n", st.AdCreative.AspectRatio, st.AdCreative.GeneratedImage != "")
				fmt.Fprintf(w, "voice:        %d turns\n", len(st.VoiceConsultant.History))
				fmt.Fprintf(w, "logos:        primary=%t secondary=%t\n", st.Logos.Primary != "", st.Logos.Secondary != "")
				fmt.Fprintf(w, "save status:  %s\n", s.Store.SaveStatus())
				return nil
			})
		},
	}
}

func (a *app) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit the product profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, false, func(ctx context.Context, s *bootstrap.Session) error {
				p := s.Store.State().ProductInfo
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "name:            %s\n", p.Name)
				fmt.Fprintf(w, "company:         %s\n", p.Company)
				fmt.Fprintf(w, "description:     %s\n", p.Description)
				fmt.Fprintf(w, "targetAudience:  %s\n", p.TargetAudience)
				fmt.Fprintf(w, "usp:             %s\n", p.USP)
				return nil
			})
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:       "set <description|targetAudience|usp> <value>",
		Short:     "Replace one editable profile field",
		Args:      cobra.MinimumNArgs(2),
		ValidArgs: []string{string(coordinator.FieldDescription), string(coordinator.FieldTargetAudience), string(coordinator.FieldUSP)},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, false, func(ctx context.Context, s *bootstrap.Session) error {
				return s.Profile.Set(ctx, coordinator.ProfileField(args[0]), strings.Join(args[1:], " "))
			})
		},
	})
	return cmd
}

func (a *app) tabCmd() *cobra.Command {
	var valid []string
	for _, t := range domain.Tabs() {
		valid = append(valid, string(t))
	}
	return &cobra.Command{
		Use:       "tab <" + strings.Join(valid, "|") + ">",
		Short:     "Switch the active view",
		Args:      cobra.ExactArgs(1),
		ValidArgs: valid,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, false, func(ctx context.Context, s *bootstrap.Session) error {
				return s.Profile.SwitchTab(ctx, domain.ActiveTab(strings.ToUpper(args[0])))
			})
		},
	}
}

func (a *app) chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <message>",
		Short: "Ask the marketing expert; the reply streams with web sources",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, true, func(ctx context.Context, s *bootstrap.Session) error {
				w := cmd.OutOrStdout()
				printed := 0
				err := s.Chat.Send(ctx, strings.Join(args, " "), func(reply string) {
					fmt.Fprint(w, reply[printed:])
					printed = len(reply)
				})
				fmt.Fprintln(w)
				if err != nil {
					return userError(err)
				}

				hist := s.Store.State().ChatHistory
				for _, src := range hist[len(hist)-1].Sources {
					fmt.Fprintf(w, "  - %s <%s>\n", src.Web.Title, src.Web.URI)
				}
				return nil
			})
		},
	}
}

func (a *app) postCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Write a Facebook post and illustrate it",
	}

	var goal, topic string
	text := &cobra.Command{
		Use:   "text",
		Short: "Generate the post copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, true, func(ctx context.Context, s *bootstrap.Session) error {
				if err := s.Post.WriteText(ctx, goal, topic); err != nil {
					return userError(err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), s.Store.State().PostGenerator.GeneratedPost)
				return nil
			})
		},
	}
	text.Flags().StringVar(&goal, "goal", domain.DefaultPostGoal, "post goal, one of: "+strings.Join(domain.PostGoals, " | "))
	text.Flags().StringVar(&topic, "topic", "", "what the post is about")

	var ratio, out string
	img := &cobra.Command{
		Use:   "image",
		Short: "Generate a branded image for the current post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, true, func(ctx context.Context, s *bootstrap.Session) error {
				if err := s.Post.GenerateImage(ctx, ratio); err != nil {
					return userError(err)
				}
				return writeDataURI(cmd, out, s.Store.State().PostGenerator.GeneratedImage)
			})
		},
	}
	img.Flags().StringVar(&ratio, "ratio", "", "aspect ratio: 1:1, 16:9 or 9:16 (default: current)")
	img.Flags().StringVarP(&out, "out", "o", "", "write the PNG to this file")

	cmd.AddCommand(text, img)
	return cmd
}

func (a *app) adCmd() *cobra.Command {
	var prompt, ratio, out string
	cmd := &cobra.Command{
		Use:   "ad",
		Short: "Generate a branded ad image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, true, func(ctx context.Context, s *bootstrap.Session) error {
				if err := s.Ad.Generate(ctx, prompt, ratio); err != nil {
					return userError(err)
				}
				return writeDataURI(cmd, out, s.Store.State().AdCreative.GeneratedImage)
			})
		},
	}
	cmd.Flags().StringVar(&prompt, "prompt", "", "describe the ad")
	cmd.Flags().StringVar(&ratio, "ratio", "", "aspect ratio: 1:1, 16:9 or 9:16 (default: current)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the PNG to this file")
	return cmd
}

func parseSlot(s string) (domain.LogoSlot, error) {
	slot := domain.LogoSlot(strings.ToLower(s))
	if !slot.Valid() {
		return "", fmt.Errorf("unknown logo slot %q (want primary or secondary)", s)
	}
	return slot, nil
}

func (a *app) logoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logo",
		Short: "Design the primary (product) and secondary (company) logos",
	}

	slotCmd := func(use, short string, minArgs int, needGen bool, fn func(ctx context.Context, cmd *cobra.Command, s *bootstrap.Session, slot domain.LogoSlot, rest []string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.MinimumNArgs(minArgs),
			RunE: func(cmd *cobra.Command, args []string) error {
				slot, err := parseSlot(args[0])
				if err != nil {
					return err
				}
				return a.withSession(cmd, needGen, func(ctx context.Context, s *bootstrap.Session) error {
					return userError(fn(ctx, cmd, s, slot, args[1:]))
				})
			},
		}
	}

	var out string
	generate := slotCmd("generate <slot>", "Render a draft logo from the approved brief", 1, true,
		func(ctx context.Context, cmd *cobra.Command, s *bootstrap.Session, slot domain.LogoSlot, _ []string) error {
			if err := s.Identity.GenerateLogo(ctx, slot); err != nil {
				return err
			}
			st := s.Store.State()
			return writeDataURI(cmd, out, st.Identity.Draft(slot).DraftLogo)
		})
	generate.Flags().StringVarP(&out, "out", "o", "", "write the draft PNG to this file")

	cmd.AddCommand(
		slotCmd("draft <slot> <idea>", "Expand an idea into a detailed logo brief", 2, true,
			func(ctx context.Context, cmd *cobra.Command, s *bootstrap.Session, slot domain.LogoSlot, rest []string) error {
				if err := s.Identity.DraftPrompt(ctx, slot, strings.Join(rest, " ")); err != nil {
					return err
				}
				st := s.Store.State()
				fmt.Fprintln(cmd.OutOrStdout(), st.Identity.Draft(slot).DetailedPrompt)
				return nil
			}),
		slotCmd("edit <slot> <brief>", "Replace the brief by hand", 2, false,
			func(ctx context.Context, cmd *cobra.Command, s *bootstrap.Session, slot domain.LogoSlot, rest []string) error {
				return s.Identity.EditPrompt(ctx, slot, strings.Join(rest, " "))
			}),
		slotCmd("approve <slot>", "Approve the brief for generation", 1, false,
			func(ctx context.Context, cmd *cobra.Command, s *bootstrap.Session, slot domain.LogoSlot, _ []string) error {
				return s.Identity.ApprovePrompt(ctx, slot)
			}),
		generate,
		slotCmd("save <slot>", "Use the draft as the watermark logo", 1, false,
			func(ctx context.Context, cmd *cobra.Command, s *bootstrap.Session, slot domain.LogoSlot, _ []string) error {
				return s.Identity.SaveLogo(ctx, slot)
			}),
	)
	return cmd
}

func (a *app) saveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Save the project to the project store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, false, func(ctx context.Context, s *bootstrap.Session) error {
				if a.flags.save {
					return nil
				}
				return saveRemote(ctx, cmd, s)
			})
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole project as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, false, func(ctx context.Context, s *bootstrap.Session) error {
				data, err := s.Store.Export()
				if err != nil {
					return err
				}
				if out == "" || out == "-" {
					_, err = cmd.OutOrStdout().Write(append(data, '\n'))
					return err
				}
				return os.WriteFile(out, data, 0o644)
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "onoo-project.json", "output file, - for stdout")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the project with an exported file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			return a.withSession(cmd, false, func(ctx context.Context, s *bootstrap.Session) error {
				if _, err := s.Store.Import(ctx, data); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "تم استيراد المشروع.")
				return nil
			})
		},
	}
}

// writeDataURI saves uri to path, or reports its size when path is empty.
func writeDataURI(cmd *cobra.Command, path, uri string) error {
	img, err := imaging.ParseDataURI(uri)
	if err != nil {
		return err
	}
	if path == "" {
		w, h, _ := img.Size()
		fmt.Fprintf(cmd.OutOrStdout(), "image ready (%dx%d); use --out to save it\n", w, h)
		return nil
	}
	return os.WriteFile(path, img.Data, 0o644)
}
