package service

import (
	"context"
	"errors"
	"testing"

	"github.com/marvingabia/da-agrimanage-gabia/internal/dto"
	"github.com/marvingabia/da-agrimanage-gabia/internal/model"
)

func seedFarmer(env *testEnv, email, phone, barangay string) {
	u := &model.User{
		Name: email, Email: email, Phone: phone, Barangay: barangay,
		Role: model.RoleFarmer, IsApproved: true, Status: model.UserStatusActive,
	}
	_ = env.users.Create(context.Background(), u)
}

func TestNotificationService_FanOut_Tally(t *testing.T) {
	env := newTestEnv(testConfig(), "bad@x.com", "09990000000")
	seedFarmer(env, "a@x.com", "09170000001", "Poblacion")
	seedFarmer(env, "b@x.com", "", "Poblacion")
	seedFarmer(env, "bad@x.com", "09990000000", "Poblacion")
	env.seedUser("Staff", "staff@x.com", model.RoleStaff, true)

	log, err := env.svc.Notification.FanOut(context.Background(), &dto.SendNotificationRequest{
		Subject:       "Seedling distribution",
		Message:       "<p>Pick up at the <b>MAO</b>.</p>",
		RecipientType: dto.RecipientFarmers,
		SendSMS:       true,
	}, &Actor{ID: "admin-1", Name: "Admin A"})
	if err != nil {
		t.Fatalf("FanOut: %v", err)
	}

	if log.TotalRecipients != 3 || log.EmailSent != 2 || log.SMSSent != 1 || log.Failed != 2 {
		t.Errorf("unexpected tally: total=%d email=%d sms=%d failed=%d",
			log.TotalRecipients, log.EmailSent, log.SMSSent, log.Failed)
	}
	if log.Status != model.NotificationPartial {
		t.Errorf("expected partial, got %s", log.Status)
	}
	if log.SentByName == nil || *log.SentByName != "Admin A" || log.NotificationType != NotificationAnnouncement {
		t.Errorf("audit fields not recorded: %+v", log)
	}
	if len(env.notes.logs) != 1 {
		t.Fatalf("tally should be persisted once, got %d", len(env.notes.logs))
	}

	for _, m := range env.gateway.sent {
		if m.Channel == "sms" && m.Body != "Seedling distribution\n\nPick up at the MAO." {
			t.Errorf("sms body should be plain text, got %q", m.Body)
		}
	}
}

func TestNotificationService_FanOut_BarangayAndEmailOff(t *testing.T) {
	env := newTestEnv(testConfig())
	seedFarmer(env, "a@x.com", "09170000001", "Poblacion")
	seedFarmer(env, "b@x.com", "09170000002", "San Isidro")

	off := false
	log, err := env.svc.Notification.FanOut(context.Background(), &dto.SendNotificationRequest{
		Subject: "Flood advisory", Message: "Stay safe", RecipientType: dto.RecipientFarmers,
		Barangay: "San Isidro", SendEmail: &off, SendSMS: true,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if log.TotalRecipients != 1 || log.EmailSent != 0 || log.SMSSent != 1 || log.Status != model.NotificationSent {
		t.Errorf("unexpected log: %+v", log)
	}
	if got := env.gateway.sentTo("sms"); len(got) != 1 || got[0] != "09170000002" {
		t.Errorf("only San Isidro should be texted, got %v", got)
	}
}

func TestNotificationService_FanOut_AllFailed(t *testing.T) {
	env := newTestEnv(testConfig(), "a@x.com")
	seedFarmer(env, "a@x.com", "", "")

	log, err := env.svc.Notification.FanOut(context.Background(), &dto.SendNotificationRequest{
		Subject: "x", Message: "y", RecipientType: dto.RecipientAll,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if log.Status != model.NotificationFailed || log.Failed != 1 {
		t.Errorf("expected failed status, got %+v", log)
	}
}

func TestNotificationService_FanOut_SkipsUnapproved(t *testing.T) {
	env := newTestEnv(testConfig())
	env.seedUser("Applicant", "new@x.com", model.RoleStaff, false)
	env.seedUser("Staff", "staff@x.com", model.RoleStaff, true)

	log, err := env.svc.Notification.FanOut(context.Background(), &dto.SendNotificationRequest{
		Subject: "Meeting", Message: "9am", RecipientType: dto.RecipientStaff,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if log.TotalRecipients != 1 {
		t.Errorf("unapproved staff must not be notified, total=%d", log.TotalRecipients)
	}
}

func TestNotificationService_ListLogs(t *testing.T) {
	env := newTestEnv(testConfig())
	for _, s := range []string{"one", "two", "three"} {
		_, _ = env.svc.Notification.FanOut(context.Background(), &dto.SendNotificationRequest{
			Subject: s, Message: s, RecipientType: dto.RecipientFarmers,
		}, nil)
	}

	logs, err := env.svc.Notification.ListLogs(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 2 || logs[0].Subject != "three" {
		t.Errorf("expected newest two, got %v", logs)
	}
}

func TestNotificationService_PersistError(t *testing.T) {
	env := newTestEnv(testConfig())
	boom := errors.New("disk full")
	env.notes.err = boom

	_, err := env.svc.Notification.FanOut(context.Background(), &dto.SendNotificationRequest{
		Subject: "x", Message: "y", RecipientType: dto.RecipientFarmers,
	}, nil)
	if !errors.Is(err, boom) {
		t.Errorf("expected storage error, got %v", err)
	}
}
