package cmd

import (
	"errors"
	"strings"

	"github.com/example/slot-scheduler/internal/application/usecases"
	"github.com/example/slot-scheduler/internal/domain/reservation"
	"github.com/spf13/cobra"
)

func newBookCmd() *cobra.Command {
	var (
		who              callerFlags
		slotID, kind     string
		owner, day, pref string
	)

	c := &cobra.Command{
		Use:     "book",
		Short:   "Book a slot by id, or the first free preferred time of a provider's day",
		Example: `  slotsched book --as c1 --role CLIENT --slot 2b1f... --kind REMOTE
  slotsched book --as c1 --role CLIENT --owner p1 --day 2025-12-01 --prefer 10:00,09:00`,
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := who.caller()
			if err != nil {
				return err
			}
			k, err := reservation.ParseKind(kind)
			if err != nil {
				return err
			}
			if (slotID == "") == (owner == "") {
				return errors.New("pass either --slot or --owner with --day")
			}

			a, err := openApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			var v usecases.ReservationView
			if slotID != "" {
				v, err = a.engine.Book(cmd.Context(), caller, usecases.BookRequest{SlotID: slotID, Kind: k})
			} else {
				v, err = a.engine.FindAndBook(cmd.Context(), caller, usecases.FindAndBookRequest{
					OwnerID:   owner,
					Day:       day,
					Preferred: splitCSV(pref),
					Kind:      k,
				})
			}
			if err != nil {
				return err
			}
			return printJSON(cmd, v)
		},
	}

	who.bind(c)
	c.Flags().StringVar(&slotID, "slot", "", "slot id")
	c.Flags().StringVar(&kind, "kind", string(reservation.KindRemote), "REMOTE or IN_PERSON")
	c.Flags().StringVar(&owner, "owner", "", "provider id, picks a slot by preference")
	c.Flags().StringVar(&day, "day", "", "day to search with --owner (YYYY-MM-DD)")
	c.Flags().StringVar(&pref, "prefer", "", "comma separated start times in order of preference (HH:MM)")
	c.MarkFlagsRequiredTogether("owner", "day")
	return c
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
