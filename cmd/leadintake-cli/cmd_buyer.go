package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/persistorai/leadintake/client"
	"github.com/persistorai/leadintake/internal/models"
)

func newBuyerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "buyer",
		Aliases: []string{"buyers"},
		Short:   "Manage buyer leads",
	}
	cmd.AddCommand(buyerListCmd())
	cmd.AddCommand(buyerGetCmd())
	cmd.AddCommand(buyerCreateCmd())
	cmd.AddCommand(buyerUpdateCmd())
	cmd.AddCommand(buyerDeleteCmd())
	cmd.AddCommand(buyerHistoryCmd())
	return cmd
}

// buyerFields holds the editable buyer flags shared by create and update.
type buyerFields struct {
	name         string
	email        string
	phone        string
	city         string
	propertyType string
	bhk          string
	purpose      string
	budgetMin    string
	budgetMax    string
	timeline     string
	source       string
	status       string
	notes        string
	tags         string
}

func (f *buyerFields) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.name, "name", "", "Full name")
	fs.StringVar(&f.email, "email", "", "Email address")
	fs.StringVar(&f.phone, "phone", "", "Phone number, 10 to 15 digits")
	fs.StringVar(&f.city, "city", "", "CHANDIGARH|MOHALI|ZIRAKPUR|PANCHKULA|OTHER")
	fs.StringVar(&f.propertyType, "type", "", "APARTMENT|VILLA|PLOT|OFFICE|RETAIL")
	fs.StringVar(&f.bhk, "bhk", "", "STUDIO|ONE|TWO|THREE|FOUR (apartments and villas)")
	fs.StringVar(&f.purpose, "purpose", "", "BUY|RENT")
	fs.StringVar(&f.budgetMin, "budget-min", "", "Minimum budget")
	fs.StringVar(&f.budgetMax, "budget-max", "", "Maximum budget")
	fs.StringVar(&f.timeline, "timeline", "", "ZERO_TO_THREE_MONTHS|THREE_TO_SIX_MONTHS|MORE_THAN_SIX_MONTHS|EXPLORING")
	fs.StringVar(&f.source, "source", "", "WEBSITE|REFERRAL|WALK_IN|CALL|OTHER")
	fs.StringVar(&f.status, "status", "", "Pipeline status")
	fs.StringVar(&f.notes, "notes", "", "Free-form notes")
	fs.StringVar(&f.tags, "tags", "", "Comma-separated tags")
}

func parseBudget(flag, v string) (*int64, error) {
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("--%s must be an integer", flag)
	}
	return &n, nil
}

func splitTags(v string) []string {
	tags := []string{}
	for t := range strings.SplitSeq(v, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// createRequest builds a create payload from the flags. The server validates it.
func (f *buyerFields) createRequest() (*client.CreateBuyerRequest, error) {
	minBudget, err := parseBudget("budget-min", f.budgetMin)
	if err != nil {
		return nil, err
	}
	maxBudget, err := parseBudget("budget-max", f.budgetMax)
	if err != nil {
		return nil, err
	}

	req := &client.CreateBuyerRequest{
		FullName:     f.name,
		Email:        optionalString(f.email),
		Phone:        f.phone,
		City:         models.City(f.city),
		PropertyType: models.PropertyType(f.propertyType),
		Purpose:      models.Purpose(f.purpose),
		BudgetMin:    minBudget,
		BudgetMax:    maxBudget,
		Timeline:     models.Timeline(f.timeline),
		Source:       models.Source(f.source),
		Notes:        optionalString(f.notes),
		Tags:         splitTags(f.tags),
	}
	if f.bhk != "" {
		bhk := models.BHK(f.bhk)
		req.BHK = &bhk
	}
	if f.status != "" {
		status := models.Status(f.status)
		req.Status = &status
	}
	return req, nil
}

// updateRequest includes only the flags that were given. An optional field
// given as an empty string is cleared.
func (f *buyerFields) updateRequest(fs *pflag.FlagSet) (*client.UpdateBuyerRequest, error) {
	req := &client.UpdateBuyerRequest{}

	if fs.Changed("name") {
		req.FullName = &f.name
	}
	if fs.Changed("phone") {
		req.Phone = &f.phone
	}
	if fs.Changed("city") {
		v := models.City(f.city)
		req.City = &v
	}
	if fs.Changed("type") {
		v := models.PropertyType(f.propertyType)
		req.PropertyType = &v
	}
	if fs.Changed("purpose") {
		v := models.Purpose(f.purpose)
		req.Purpose = &v
	}
	if fs.Changed("timeline") {
		v := models.Timeline(f.timeline)
		req.Timeline = &v
	}
	if fs.Changed("source") {
		v := models.Source(f.source)
		req.Source = &v
	}
	if fs.Changed("status") {
		v := models.Status(f.status)
		req.Status = &v
	}
	if fs.Changed("tags") {
		tags := splitTags(f.tags)
		req.Tags = &tags
	}

	if fs.Changed("email") {
		req.Email = optional(f.email)
	}
	if fs.Changed("notes") {
		req.Notes = optional(f.notes)
	}
	if fs.Changed("bhk") {
		req.BHK = models.Null[models.BHK]()
		if f.bhk != "" {
			req.BHK = models.Some(models.BHK(f.bhk))
		}
	}

	for _, b := range []struct {
		flag, value string
		dst         *models.Optional[int64]
	}{
		{"budget-min", f.budgetMin, &req.BudgetMin},
		{"budget-max", f.budgetMax, &req.BudgetMax},
	} {
		if !fs.Changed(b.flag) {
			continue
		}
		n, err := parseBudget(b.flag, b.value)
		if err != nil {
			return nil, err
		}
		*b.dst = models.Null[int64]()
		if n != nil {
			*b.dst = models.Some(*n)
		}
	}

	return req, nil
}

func optional(v string) models.Optional[string] {
	if v == "" {
		return models.Null[string]()
	}
	return models.Some(v)
}

func buyerRows(buyers []client.Buyer) [][]string {
	rows := make([][]string, 0, len(buyers))
	for _, b := range buyers {
		rows = append(rows, []string{
			b.ID, b.FullName, b.Phone, string(b.City), string(b.PropertyType),
			string(b.Status), b.UpdatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return rows
}

func buyerFieldPairs(d *client.BuyerDetail) [][2]string {
	b := d.Buyer
	pairs := [][2]string{
		{"ID", b.ID},
		{"Name", b.FullName},
		{"Email", deref(b.Email)},
		{"Phone", b.Phone},
		{"City", string(b.City)},
		{"Type", string(b.PropertyType)},
		{"BHK", ""},
		{"Purpose", string(b.Purpose)},
		{"Budget", formatBudget(b.BudgetMin, b.BudgetMax)},
		{"Timeline", string(b.Timeline)},
		{"Source", string(b.Source)},
		{"Status", string(b.Status)},
		{"Notes", deref(b.Notes)},
		{"Tags", strings.Join(b.Tags, ", ")},
		{"Owner", d.Owner.DisplayName()},
		{"Updated", b.UpdatedAt.Format(time.RFC3339Nano)},
	}
	if b.BHK != nil {
		pairs[6][1] = string(*b.BHK)
	}
	return pairs
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatBudget(lo, hi *int64) string {
	switch {
	case lo != nil && hi != nil:
		return fmt.Sprintf("%d - %d", *lo, *hi)
	case lo != nil:
		return fmt.Sprintf("from %d", *lo)
	case hi != nil:
		return fmt.Sprintf("up to %d", *hi)
	}
	return ""
}

var buyerHeaders = []string{"ID", "NAME", "PHONE", "CITY", "TYPE", "STATUS", "UPDATED"}

func buyerListCmd() *cobra.Command {
	var opts client.ListOptions
	var city, propertyType, status, timeline string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List buyers, most recently updated first",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			opts.City = models.City(city)
			opts.PropertyType = models.PropertyType(propertyType)
			opts.Status = models.Status(status)
			opts.Timeline = models.Timeline(timeline)

			page, err := apiClient.Buyers.List(context.Background(), &opts)
			if err != nil {
				fatal("list buyers", err)
			}
			switch flagFmt {
			case "table":
				formatTable(buyerHeaders, buyerRows(page.Buyers))
				fmt.Fprintf(stdout, "\npage %d, %d of %d buyers\n", page.Page, len(page.Buyers), page.Total)
			case "quiet":
				for _, b := range page.Buyers {
					fmt.Fprintln(stdout, b.ID)
				}
			default:
				output(page, "")
			}
		},
	}
	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "Match name, email or phone")
	cmd.Flags().StringVar(&city, "city", "", "Filter by city")
	cmd.Flags().StringVar(&propertyType, "type", "", "Filter by property type")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&timeline, "timeline", "", "Filter by timeline")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 10, "Buyers per page")
	return cmd
}

func buyerGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a buyer with its owner and recent changes",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			detail, err := apiClient.Buyers.Get(context.Background(), args[0])
			if err != nil {
				fatal("get buyer", err)
			}
			if flagFmt == "table" {
				formatFields(buyerFieldPairs(detail))
				return
			}
			output(detail, detail.Buyer.ID)
		},
	}
}

func buyerCreateCmd() *cobra.Command {
	var fields buyerFields
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a buyer owned by the signed-in user",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			req, err := fields.createRequest()
			if err != nil {
				fatal("create buyer", err)
			}
			buyer, err := apiClient.Buyers.Create(context.Background(), req)
			if err != nil {
				fatal("create buyer", err)
			}
			output(buyer, buyer.ID)
		},
	}
	fields.register(cmd.Flags())
	return cmd
}

func buyerUpdateCmd() *cobra.Command {
	var fields buyerFields
	var ifUnmodifiedSince string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update the given fields of a buyer",
		Long: `Update only the fields passed as flags. Pass an empty value to clear
email, bhk, budget-min, budget-max or notes. With --if-unmodified-since the
update is rejected if the buyer changed after that updatedAt timestamp.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req, err := fields.updateRequest(cmd.Flags())
			if err != nil {
				fatal("update buyer", err)
			}
			if ifUnmodifiedSince != "" {
				t, err := time.Parse(time.RFC3339Nano, ifUnmodifiedSince)
				if err != nil {
					fatal("update buyer", fmt.Errorf("--if-unmodified-since must be RFC 3339: %w", err))
				}
				req.UpdatedAt = &t
			}
			buyer, err := apiClient.Buyers.Update(context.Background(), args[0], req)
			if err != nil {
				if client.IsConflict(err) {
					fatal("update buyer", fmt.Errorf("buyer changed since it was read, fetch it again: %w", err))
				}
				fatal("update buyer", err)
			}
			output(buyer, buyer.ID)
		},
	}
	fields.register(cmd.Flags())
	cmd.Flags().StringVar(&ifUnmodifiedSince, "if-unmodified-since", "", "Reject the update if the buyer changed after this updatedAt")
	return cmd
}

func buyerDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a buyer and its history",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := apiClient.Buyers.Delete(context.Background(), args[0]); err != nil {
				fatal("delete buyer", err)
			}
			fmt.Fprintln(stdout, "deleted")
		},
	}
}

func changedFields(d models.Diff) string {
	names := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		names = append(names, f.Field)
	}
	return strings.Join(names, ",")
}

func buyerHistoryCmd() *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "history <id>",
		Short: "Show the change history of a buyer, newest first",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			entries, hasMore, err := apiClient.Buyers.History(context.Background(), args[0], limit, offset)
			if err != nil {
				fatal("buyer history", err)
			}
			if flagFmt == "table" {
				var rows [][]string
				for _, e := range entries {
					rows = append(rows, []string{
						e.ChangedAt.Local().Format("2006-01-02 15:04:05"),
						string(e.Diff.Action),
						e.ChangedBy,
						changedFields(e.Diff),
					})
				}
				formatTable([]string{"CHANGED_AT", "ACTION", "BY", "FIELDS"}, rows)
				if hasMore {
					fmt.Fprintln(stdout, "\nmore entries available, use --offset")
				}
				return
			}
			output(map[string]any{"history": entries, "has_more": hasMore}, "")
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Max entries")
	cmd.Flags().IntVar(&offset, "offset", 0, "Entries to skip")
	return cmd
}
