// Package view projects an ordered booking collection into the staff dashboard.
package view

import "tibacare/pkg/model"

// Partition splits bookings, already ordered by preferred time, into the
// Current / Queue / Upcoming bands. Current is the first Pending or In
// Progress booking. Further Pending or In Progress bookings belong to no band.
func Partition(bookings []*model.Booking) model.Dashboard {
	dashboard := model.Dashboard{
		Queue:    []*model.Booking{},
		Upcoming: []*model.Booking{},
	}

	for _, b := range bookings {
		if b == nil {
			continue
		}
		switch {
		case b.Status.IsCurrent():
			if dashboard.Current == nil {
				dashboard.Current = b
			}
		case b.Status == model.StatusQueued:
			dashboard.Queue = append(dashboard.Queue, b)
		default:
			dashboard.Upcoming = append(dashboard.Upcoming, b)
		}
	}

	return dashboard
}
