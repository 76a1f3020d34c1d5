package cmd

import (
	"fmt"
	"time"

	"github.com/example/slot-scheduler/internal/application/usecases"
	"github.com/example/slot-scheduler/internal/domain/reservation"
	"github.com/spf13/cobra"
)

func newAvailabilityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Declare, list and search provider availability",
	}
	cmd.AddCommand(newAvailabilityDeclareCmd())
	cmd.AddCommand(newAvailabilityListCmd())
	cmd.AddCommand(newAvailabilitySearchCmd())
	return cmd
}

func newAvailabilityDeclareCmd() *cobra.Command {
	var (
		who             callerFlags
		day, start, end string
	)

	c := &cobra.Command{
		Use:     "declare",
		Short:   "Declare a time range on one day; it is split into slots",
		Example: "  slotsched availability declare --as p1 --role PROVIDER --day 2025-12-01 --start 09:00 --end 11:00",
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := who.caller()
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			slots, err := a.engine.DeclareAvailability(cmd.Context(), caller, usecases.DeclareRequest{Day: day, Start: start, End: end})
			if err != nil {
				return err
			}
			return printJSON(cmd, slots)
		},
	}

	who.bind(c)
	c.Flags().StringVar(&day, "day", "", "calendar day (YYYY-MM-DD)")
	c.Flags().StringVar(&start, "start", "", "start time of day (HH:MM)")
	c.Flags().StringVar(&end, "end", "", "end time of day (HH:MM)")
	_ = c.MarkFlagRequired("day")
	_ = c.MarkFlagRequired("start")
	_ = c.MarkFlagRequired("end")
	return c
}

func newAvailabilityListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <provider-id>",
		Short: "List every slot of a provider, booked or not",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			slots, err := a.engine.ListAvailability(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, slots)
		},
	}
}

func newAvailabilitySearchCmd() *cobra.Command {
	var (
		owner, from, to string
		includeBooked   bool
	)

	c := &cobra.Command{
		Use:   "search",
		Short: "Search slots across providers (free only unless --include-booked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := reservation.SlotFilter{OwnerID: owner, IncludeBooked: includeBooked}
			var err error
			if f.From, err = parseBound("from", from); err != nil {
				return err
			}
			if f.To, err = parseBound("to", to); err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			slots, err := a.engine.SearchAvailability(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printJSON(cmd, slots)
		},
	}

	c.Flags().StringVar(&owner, "owner", "", "restrict to one provider")
	c.Flags().StringVar(&from, "from", "", "earliest slot start (RFC3339)")
	c.Flags().StringVar(&to, "to", "", "latest slot end (RFC3339)")
	c.Flags().BoolVar(&includeBooked, "include-booked", false, "include booked slots")
	return c
}

func parseBound(name, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &t, nil
}
