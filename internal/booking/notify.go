package booking

import (
	"context"

	"roombooking-backend/internal/i18n"
	"roombooking-backend/internal/model"
	"roombooking-backend/internal/store"
)

const whenLayout = "2006-01-02 15:04 MST"

var kindKeys = map[model.NotificationKind][2]string{
	model.KindReservationRequested: {i18n.ReservationRequestedTitle, i18n.ReservationRequestedBody},
	model.KindReservationCreated:   {i18n.ReservationCreatedTitle, i18n.ReservationCreatedBody},
	model.KindReservationApproved:  {i18n.ReservationApprovedTitle, i18n.ReservationApprovedBody},
	model.KindReservationRejected:  {i18n.ReservationRejectedTitle, i18n.ReservationRejectedBody},
	model.KindReservationCancelled: {i18n.ReservationCancelledTitle, i18n.ReservationCancelledBody},
}

func roomName(r *model.Reservation) string {
	if r.Room != nil {
		return r.Room.Name
	}
	return "room"
}

func (s *Service) newNotification(userID int64, locale string, kind model.NotificationKind, r *model.Reservation, args ...any) *model.Notification {
	keys := kindKeys[kind]
	return &model.Notification{
		UserID:        userID,
		Kind:          kind,
		Title:         s.translator.Sprintf(locale, keys[0]),
		Body:          s.translator.Sprintf(locale, keys[1], args...),
		ReservationID: &r.ID,
		CreatedAt:     s.clock.Now(),
	}
}

// notifyOwner stores a notification for the reservation's owner.
func (s *Service) notifyOwner(ctx context.Context, tx store.Store, r *model.Reservation, locale string, kind model.NotificationKind) (int64, error) {
	n := s.newNotification(r.UserID, locale, kind, r, roomName(r), r.StartAt.UTC().Format(whenLayout))
	if err := tx.CreateNotification(ctx, n); err != nil {
		return 0, err
	}
	return n.ID, nil
}

// notifyManagers stores a request notification for every manager and admin.
func (s *Service) notifyManagers(ctx context.Context, tx store.Store, requester *model.User, r *model.Reservation) ([]int64, error) {
	managers, err := tx.ListUsersWithRoles(ctx, model.RoleManager, model.RoleAdmin)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(managers))
	for _, m := range managers {
		if !m.Active {
			continue
		}
		n := s.newNotification(m.ID, m.Locale, model.KindReservationRequested, r,
			requester.Name, roomName(r), r.StartAt.UTC().Format(whenLayout))
		if err := tx.CreateNotification(ctx, n); err != nil {
			return nil, err
		}
		ids = append(ids, n.ID)
	}
	return ids, nil
}
