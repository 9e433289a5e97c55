package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devilmonastery/clubhouse/internal/api"
	"github.com/devilmonastery/clubhouse/internal/models"
	"github.com/devilmonastery/clubhouse/internal/pkg/textutil"
	"github.com/devilmonastery/clubhouse/internal/pkg/timeutil"
)

func newClubsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "clubs",
		Aliases: []string{"club"},
		Short:   "Browse, create and join clubs",
	}
	cmd.AddCommand(newClubsListCommand())
	cmd.AddCommand(newClubsShowCommand())
	cmd.AddCommand(newClubsCreateCommand())
	cmd.AddCommand(newClubsJoinCommand())
	return cmd
}

func newClubsListCommand() *cobra.Command {
	var opts api.ListClubsOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clubs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)
			clubs, err := cc.API.Clubs.List(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if wantJSON() {
				return printJSON(cmd, clubs)
			}
			printClubs(cmd, clubs)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Page, "page", 0, "Page number")
	cmd.Flags().IntVar(&opts.Size, "size", 0, "Page size")
	cmd.Flags().StringVar(&opts.Category, "category", "", "Filter by category")
	return cmd
}

func printClubs(cmd *cobra.Command, clubs []models.Club) {
	if len(clubs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No clubs found")
		return
	}
	w := newTable(cmd.OutOrStdout(), "ID\tNAME\tCATEGORY\tSTATUS\tTAGS")
	for _, c := range clubs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			c.GroupID,
			textutil.Truncate(c.Name, 40),
			orDash(c.Category),
			orDash(c.Status),
			orDash(strings.Join(textutil.Tags(c.Description), " ")))
	}
	w.Flush()
}

func newClubsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show CLUB_ID",
		Short: "Show a club and its activities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)
			page, err := cc.Dashboard.ClubPage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if wantJSON() {
				return printJSON(cmd, page)
			}

			var md strings.Builder
			fmt.Fprintf(&md, "# %s\n\n", page.Club.Name)
			fmt.Fprintf(&md, "*%s* · %s\n\n", orDash(page.Club.Category), orDash(page.Club.Status))
			if page.Club.Description != "" {
				md.WriteString(page.Club.Description + "\n\n")
			}
			if page.IsAdmin {
				md.WriteString("> You administer this club. See `clubhouse admin --help`.\n\n")
			}
			md.WriteString("## Activities\n\n")
			if len(page.Activities) == 0 {
				md.WriteString("No activities scheduled.\n")
			}
			for _, a := range page.Activities {
				fmt.Fprintf(&md, "- **%s** (#%d) %s, %s\n", a.Name, a.ActivityID,
					timeutil.FormatEventTime(a.StartDate, timezone(cc)), orDash(a.Location))
			}
			printMarkdown(cmd.OutOrStdout(), cc, md.String())
			return nil
		},
	}
}

func newClubsCreateCommand() *cobra.Command {
	var (
		req          models.CreateClubRequest
		contactName  string
		contactEmail string
		contactPhone string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a club",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)
			if contactEmail != "" {
				req.Contacts = append(req.Contacts, models.ClubContact{
					Name: contactName, Type: models.ContactEmail, Value: contactEmail, Primary: true,
				})
			}
			if contactPhone != "" {
				req.Contacts = append(req.Contacts, models.ClubContact{
					Name: contactName, Type: models.ContactPhone, Value: contactPhone, Primary: contactEmail == "",
				})
			}

			resp, err := cc.API.Clubs.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			if wantJSON() {
				return printJSON(cmd, resp)
			}
			printMessage(cmd, resp.Message, "✓ Club created")
			if resp.GroupID != 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Club ID: %d\n", resp.GroupID)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Name, "name", "", "Club name")
	f.StringVar(&req.Category, "category", "", "Club category")
	f.StringVar(&req.Description, "description", "", "Club description (markdown, #tags allowed)")
	f.StringVar(&contactName, "contact-name", "", "Contact person")
	f.StringVar(&contactEmail, "contact-email", "", "Contact email")
	f.StringVar(&contactPhone, "contact-phone", "", "Contact phone")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newClubsJoinCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "join CLUB_ID",
		Short: "Ask to join a club",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("invalid club ID %q", args[0])
			}
			resp, err := getCliContext(cmd).API.Clubs.RequestToJoin(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printMessage(cmd, resp.Message, "✓ Join request sent")
			return nil
		},
	}
}
