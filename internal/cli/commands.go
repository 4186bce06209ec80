package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"tributes/internal/board"
	"tributes/internal/message"

	"github.com/spf13/cobra"
)

func whoamiCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print this profile's author id and the backend mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := s.repo.UserID(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", uid, s.repo.Mode())
			return nil
		},
	}
}

func listCmd(s *session) *cobra.Command {
	var category string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List messages, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := board.ParseFilter(category)
			if err != nil {
				return err
			}
			ms := s.board.View(f)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(ms)
			}

			uid, err := s.repo.UserID(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tWHEN\tNAME\tCATEGORY\tCONTENT\t")
			for _, m := range ms {
				id := m.ID
				if m.AuthorID == uid {
					id += " *"
				}
				when := time.UnixMilli(m.Timestamp).Format("2006-01-02 15:04")
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", id, when, m.Name, m.Category, oneLine(m.Content, 60))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only this category")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

type fields struct {
	name, category, content, principle, media string
}

func (f *fields) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "your name")
	cmd.Flags().StringVar(&f.category, "category", "", "message category")
	cmd.Flags().StringVar(&f.content, "content", "", "message text")
	cmd.Flags().StringVar(&f.principle, "principle", "", "leadership principle")
	cmd.Flags().StringVar(&f.media, "media", "", "image or video file to attach")
}

func postCmd(s *session) *cobra.Command {
	var f fields
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			up, closeFn, err := openUpload(f.media)
			if err != nil {
				return err
			}
			defer closeFn()

			m, err := s.board.Post(cmd.Context(), message.Draft{
				Name:                f.name,
				Category:            message.Category(f.category),
				Content:             f.content,
				LeadershipPrinciple: f.principle,
			}, up)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), m.ID)
			return nil
		},
	}
	f.bind(cmd)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func editCmd(s *session) *cobra.Command {
	var f fields
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit one of your messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p message.Patch
			flags := cmd.Flags()
			if flags.Changed("name") {
				p.Name = &f.name
			}
			if flags.Changed("category") {
				c := message.Category(f.category)
				p.Category = &c
			}
			if flags.Changed("content") {
				p.Content = &f.content
			}
			if flags.Changed("principle") {
				p.LeadershipPrinciple = &f.principle
			}

			up, closeFn, err := openUpload(f.media)
			if err != nil {
				return err
			}
			defer closeFn()

			if p.Empty() && up == nil {
				return errors.New("nothing to change")
			}
			m, err := s.board.Edit(cmd.Context(), args[0], p, up)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), m.ID)
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func deleteCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := s.board.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s: not found or not yours", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			return nil
		},
	}
}

func statsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print board totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := s.board.Stats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "messages:     %d\n", st.TotalMessages)
			fmt.Fprintf(out, "team members: %d\n", st.TeamMembers)
			fmt.Fprintf(out, "days:         %d\n", st.TenureDays)
			for _, c := range st.Populated {
				fmt.Fprintf(out, "  %-22s %d\n", c, st.Categories[c])
			}
			return nil
		},
	}
}

func openUpload(path string) (*message.Upload, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return &message.Upload{
		Filename:    filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Size:        info.Size(),
		Body:        f,
	}, func() { _ = f.Close() }, nil
}

func oneLine(s string, max int) string {
	r := []rune(s)
	for i, c := range r {
		if c == '\n' {
			r[i] = ' '
		}
	}
	if len(r) > max {
		return string(r[:max-1]) + "…"
	}
	return string(r)
}
