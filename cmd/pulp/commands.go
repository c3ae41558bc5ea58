package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/h0rv/pulp/internal/domain"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newBoardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "boards",
		Short: "List the boards of the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			env, err := setup()
			if err != nil {
				return err
			}
			defer env.close()

			boards, err := env.coord.LoadBoards(ctx)
			if err != nil {
				return err
			}
			if len(boards) == 0 {
				fmt.Fprintln(os.Stdout, "No boards")
				return nil
			}

			t := newTable("ID", "BOARD", "NAME")
			for _, b := range boards {
				t.Row(b.ID, domain.BoardRef{Owner: b.OwnerLogin(), Slug: b.Slug}.String(), b.Name)
			}
			fmt.Fprintln(os.Stdout, t.Render())
			return nil
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show BOARD",
		Short: "Print the lists and cards of a board",
		Long:  "Print the lists and cards of a board. BOARD is OWNER/SLUG or a board ID.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			env, err := setup()
			if err != nil {
				return err
			}
			defer env.close()

			board, backfill, err := env.coord.LoadBoard(ctx, domain.ParseBoardRef(args[0]))
			if err != nil {
				return err
			}
			if err := backfill.Send(ctx); err != nil {
				env.log.WithError(err).Warn("failed to persist backfilled positions")
			}

			fmt.Fprintln(os.Stdout, headerStyle.Render(board.Name))
			s := env.coord.Store()
			t := newTable("LIST", "CARD", "DESCRIPTION")
			for _, l := range s.Lists(board.ID) {
				cards := s.Cards(l.ID)
				if len(cards) == 0 {
					t.Row(l.Name, "", "")
					continue
				}
				for i, c := range cards {
					name := ""
					if i == 0 {
						name = l.Name
					}
					t.Row(name, c.Name, firstLine(c.Description))
				}
			}
			fmt.Fprintln(os.Stdout, t.Render())
			return nil
		},
	}
}

func newAddCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "add BOARD LIST NAME",
		Short: "Add a card at the end of a list",
		Long:  "Add a card at the end of a list. LIST is matched by name, case-insensitively.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			env, err := setup()
			if err != nil {
				return err
			}
			defer env.close()

			board, _, err := env.coord.LoadBoard(ctx, domain.ParseBoardRef(args[0]))
			if err != nil {
				return err
			}

			var list *domain.List
			for _, l := range env.coord.Store().Lists(board.ID) {
				if strings.EqualFold(l.Name, args[1]) {
					list = &l
					break
				}
			}
			if list == nil {
				return fmt.Errorf("list %q not found on board %s", args[1], board.Name)
			}

			card, mut, err := env.coord.CreateCard(list.ID, args[2], description)
			if err != nil {
				return err
			}
			if err := mut.Send(ctx); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Added %q to %s\n", card.Name, list.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Card description")
	return cmd
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
