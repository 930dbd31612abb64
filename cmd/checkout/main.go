package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/qatarjobs-payments/internal/checkout"
	"github.com/qatarjobs-payments/internal/config"
	"github.com/qatarjobs-payments/internal/domain/payment"
	"github.com/qatarjobs-payments/internal/logger"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const dateLayout = "2006-01-02"

func main() {
	flags := pflag.NewFlagSet("checkout", pflag.ExitOnError)
	configName := flags.String("config", "checkout", "config file base name under ./configs")
	flags.String("api-url", "", "payments API base URL")
	flags.Duration("poll-interval", 0, "status poll interval")
	flags.Duration("poll-timeout", 0, "give up polling after this long")
	flags.Duration("hold", 0, "slot hold countdown")
	flags.String("session-file", "", "where the applicant session is kept")
	name := flags.String("name", "", "applicant full name (new session)")
	username := flags.String("username", "", "applicant username (new session)")
	phone := flags.String("phone", "", "applicant phone (new session)")
	job := flags.String("job", "", "position applied for")
	date := flags.String("date", "", "interview date YYYY-MM-DD, defaults to tomorrow")
	slotTime := flags.String("time", "9:00 AM", "interview time slot")
	payPhone := flags.String("pay-phone", "", "phone to charge, defaults to the session phone")
	logout := flags.Bool("logout", false, "forget the saved session and exit")
	_ = flags.Parse(os.Args[1:])

	v := viper.New()
	for key, flag := range map[string]string{
		"CHECKOUT_API_URL":       "api-url",
		"CHECKOUT_POLL_INTERVAL": "poll-interval",
		"CHECKOUT_POLL_TIMEOUT":  "poll-timeout",
		"CHECKOUT_HOLD_DURATION": "hold",
		"CHECKOUT_SESSION_FILE":  "session-file",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to bind flag %s: %v\n", flag, err)
			os.Exit(1)
		}
	}

	cfg, err := config.LoadConfigInto(v, *configName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(os.Stderr, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := checkout.NewFileSessionStore(cfg.Checkout.SessionFile)
	if *logout {
		if err := store.Clear(ctx); err != nil {
			log.Error("Failed to clear session", "error", err)
			os.Exit(1)
		}
		fmt.Println("Signed out.")
		return
	}

	session, err := store.Load(ctx)
	if errors.Is(err, checkout.ErrNoSession) {
		if *name == "" || *phone == "" {
			fmt.Fprintln(os.Stderr, "No saved session: --name and --phone are required")
			os.Exit(2)
		}
		session = checkout.NewSession(*username, *name, *phone, *job)
		if err := store.Save(ctx, session); err != nil {
			log.Warn("Failed to save session", "error", err)
		}
	} else if err != nil {
		log.Error("Failed to load session", "error", err)
		os.Exit(1)
	}

	jobTitle := *job
	if jobTitle == "" {
		jobTitle = session.PositionApplied
	}

	slotDate := time.Now().AddDate(0, 0, 1).Truncate(24 * time.Hour)
	if *date != "" {
		slotDate, err = time.Parse(dateLayout, *date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid --date %q: %v\n", *date, err)
			os.Exit(2)
		}
	}

	controller := checkout.NewController(log, checkout.NewAPIClient(cfg.Checkout.APIURL, 0), checkout.ControllerConfig{
		Amount:       cfg.Payment.FixedAmount,
		Description:  cfg.Payment.Description,
		PollInterval: cfg.Checkout.PollInterval,
		PollTimeout:  cfg.Checkout.PollTimeout,
		HoldDuration: cfg.Checkout.HoldDuration,
	})
	defer controller.Close()

	var (
		mu   sync.Mutex
		last checkout.Snapshot
	)
	controller.Subscribe(func(s checkout.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if s.Stage != last.Stage || s.PaymentStatus != last.PaymentStatus || s.HoldExpired != last.HoldExpired {
			fmt.Printf("[%s] stage=%s payment=%s hold=%s\n", time.Now().Format("15:04:05"), s.Stage, display(s.PaymentStatus), s.HoldLabel)
			if s.HoldExpired && !last.HoldExpired {
				fmt.Println("Your slot hold has run out. You can still complete the payment.")
			}
		}
		last = s
	})

	if err := controller.SubmitDetails(ctx, checkout.Details{
		UserID:   session.ID,
		FullName: session.FullName,
		Phone:    session.Phone,
		JobTitle: jobTitle,
	}); err != nil {
		log.Error("Failed to submit details", "error", err)
		os.Exit(1)
	}

	if err := controller.Schedule(ctx, checkout.Slot{Date: slotDate, Time: *slotTime}); err != nil {
		log.Error("Failed to schedule interview", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Interview held for %s at %s. Confirm the prompt on your phone.\n", slotDate.Format("Monday, Jan 2, 2006"), *slotTime)

	chargePhone := *payPhone
	if chargePhone == "" {
		chargePhone = session.Phone
	}

	status, err := controller.Pay(ctx, chargePhone)
	if err != nil {
		log.Error("Payment did not complete", "error", err)
		os.Exit(1)
	}

	switch status {
	case payment.CanonicalSuccess:
		fmt.Println("Payment confirmed. Your interview is booked.")
	case payment.CanonicalFailed:
		fmt.Println("Payment failed. Run the command again to retry.")
		os.Exit(1)
	default:
		fmt.Println("Payment is still pending. Check again later.")
		os.Exit(1)
	}
}

func display(s payment.CanonicalStatus) string {
	if s == "" {
		return "-"
	}
	return string(s)
}
