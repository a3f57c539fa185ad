package waitlist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tamweel-auto/waitlist/internal/i18n"
	"github.com/tamweel-auto/waitlist/internal/logging"
	"github.com/tamweel-auto/waitlist/internal/notification"
	"github.com/tamweel-auto/waitlist/internal/tier"
)

type countingRepo struct {
	Repository
	mu      sync.Mutex
	created int
}

func (r *countingRepo) Create(ctx context.Context, e Entrant) error {
	if err := r.Repository.Create(ctx, e); err != nil {
		return err
	}
	r.mu.Lock()
	r.created++
	r.mu.Unlock()
	return nil
}

type countingIssuer struct {
	IdentityIssuer
	mu        sync.Mutex
	positions int
	fail      error
}

func (i *countingIssuer) NextPosition(ctx context.Context) (int, error) {
	i.mu.Lock()
	i.positions++
	i.mu.Unlock()
	if i.fail != nil {
		return 0, i.fail
	}
	return i.IdentityIssuer.NextPosition(ctx)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification.Message
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, m notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, m)
	return n.err
}

type fixture struct {
	svc      *Service
	repo     *countingRepo
	issuer   *countingIssuer
	sessions SessionStore
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     &countingRepo{Repository: NewMemoryRepository()},
		issuer:   &countingIssuer{IdentityIssuer: NewMemoryIssuer()},
		sessions: NewMemorySessionStore(),
		notifier: &recordingNotifier{},
	}
	logger := logging.Discard()
	f.svc = NewService(Dependencies{
		Repo:     f.repo,
		Issuer:   f.issuer,
		Sessions: f.sessions,
		Tiers:    tier.NewResolver(nil, logger),
		Notifier: f.notifier,
		Logger:   logger,
	})
	return f
}

func validForm() Form {
	return Form{Name: "Noura", Email: "Noura@Example.com", Phone: "050 123 4567", SessionID: "sess-1", Locale: i18n.Arabic}
}

func TestSubmitCreatesEntrant(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Submit(context.Background(), validForm())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Outcome != OutcomeCreated || res.Confirmation == nil {
		t.Fatalf("unexpected result %+v", res)
	}
	conf := *res.Confirmation
	if conf.Points != InitialPoints || conf.Position != 1 || conf.ReferralCode == "" || conf.StatusID == "" {
		t.Fatalf("unexpected confirmation %+v", conf)
	}
	if conf.Tier != tier.Standard {
		t.Fatalf("expected Standard for %d points, got %s", conf.Points, conf.Tier)
	}

	stored, err := f.repo.FindByEmail(context.Background(), "noura@example.com")
	if err != nil {
		t.Fatalf("find stored entrant: %v", err)
	}
	if stored.Phone != "+966501234567" {
		t.Fatalf("phone not normalized: %s", stored.Phone)
	}

	saved, err := f.sessions.Load(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("session not saved: %v", err)
	}
	if saved.StatusID != conf.StatusID || saved.CapturedAt.IsZero() {
		t.Fatalf("unexpected session snapshot %+v", saved)
	}

	if err := f.svc.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if len(f.notifier.sent) != 1 || f.notifier.sent[0].Kind != notification.KindWaitlistJoined {
		t.Fatalf("expected one welcome notification, got %+v", f.notifier.sent)
	}
	if f.notifier.sent[0].Destination != "noura@example.com" || f.notifier.sent[0].Locale != "ar" {
		t.Fatalf("unexpected welcome message %+v", f.notifier.sent[0])
	}
}

func TestSubmitDuplicateEmailRedirectsToExisting(t *testing.T) {
	f := newFixture(t)
	first, err := f.svc.Submit(context.Background(), validForm())
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	again := validForm()
	again.Email = "  noura@example.COM "
	again.Name = "Someone Else"
	res, err := f.svc.Submit(context.Background(), again)
	if err != nil {
		t.Fatalf("duplicate must not be an error, got %v", err)
	}
	if res.Outcome != OutcomeExisting || res.StatusID != first.StatusID {
		t.Fatalf("expected redirect to %s, got %+v", first.StatusID, res)
	}
	if res.Confirmation != nil {
		t.Fatalf("existing outcome must not carry a confirmation")
	}
	if f.repo.created != 1 {
		t.Fatalf("expected exactly one row, got %d", f.repo.created)
	}
	f.svc.Wait(context.Background())
	if len(f.notifier.sent) != 1 {
		t.Fatalf("duplicate must not send a second welcome")
	}
}

func TestSubmitRequestsFreshIdentityEachAttempt(t *testing.T) {
	f := newFixture(t)
	f.svc.Submit(context.Background(), validForm())
	f.svc.Submit(context.Background(), validForm())
	if f.issuer.positions != 2 {
		t.Fatalf("expected a position request per attempt, got %d", f.issuer.positions)
	}
}

func TestSubmitIdentityFailureCreatesNothing(t *testing.T) {
	f := newFixture(t)
	f.issuer.fail = errors.New("rpc down")

	_, err := f.svc.Submit(context.Background(), validForm())
	if !errors.Is(err, ErrIdentityUnavailable) {
		t.Fatalf("expected ErrIdentityUnavailable, got %v", err)
	}
	if f.repo.created != 0 {
		t.Fatalf("no row may be created when identity generation fails")
	}
	if _, err := f.sessions.Load(context.Background(), "sess-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("no session may be saved, got %v", err)
	}
}

func TestSubmitNotificationFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("smtp down")
	res, err := f.svc.Submit(context.Background(), validForm())
	if err != nil || res.Outcome != OutcomeCreated {
		t.Fatalf("expected success despite notifier failure, got %+v %v", res, err)
	}
	f.svc.Wait(context.Background())
}

type blockingNotifier struct {
	release chan struct{}
	sent    chan notification.Message
}

func (n *blockingNotifier) Send(_ context.Context, m notification.Message) error {
	<-n.release
	n.sent <- m
	return nil
}

func TestSubmitDoesNotWaitForWelcome(t *testing.T) {
	f := newFixture(t)
	slow := &blockingNotifier{release: make(chan struct{}), sent: make(chan notification.Message, 1)}
	f.svc.Notifier = slow

	res, err := f.svc.Submit(context.Background(), validForm())
	if err != nil || res.Outcome != OutcomeCreated {
		t.Fatalf("submit: %+v %v", res, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := f.svc.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected welcome still pending, got %v", err)
	}

	close(slow.release)
	if err := f.svc.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if m := <-slow.sent; m.Kind != notification.KindWaitlistJoined {
		t.Fatalf("unexpected message %+v", m)
	}
}

func TestSubmitDropsUnknownReferrer(t *testing.T) {
	f := newFixture(t)
	first, _ := f.svc.Submit(context.Background(), validForm())

	referred := Form{Name: "Sara", Email: "sara@example.com", Phone: "551234567", ReferrerCode: " " + first.Confirmation.ReferralCode + " "}
	if _, err := f.svc.Submit(context.Background(), referred); err != nil {
		t.Fatalf("referred submit: %v", err)
	}
	stranger := Form{Name: "Omar", Email: "omar@example.com", Phone: "561234567", ReferrerCode: "NOPE"}
	if _, err := f.svc.Submit(context.Background(), stranger); err != nil {
		t.Fatalf("stranger submit: %v", err)
	}

	sara, _ := f.repo.FindByEmail(context.Background(), "sara@example.com")
	if sara.ReferrerCode != first.Confirmation.ReferralCode {
		t.Fatalf("known referrer not kept: %q", sara.ReferrerCode)
	}
	omar, _ := f.repo.FindByEmail(context.Background(), "omar@example.com")
	if omar.ReferrerCode != "" {
		t.Fatalf("unknown referrer kept: %q", omar.ReferrerCode)
	}
}

func TestValidateFields(t *testing.T) {
	svc := NewService(Dependencies{Repo: NewMemoryRepository(), Issuer: NewMemoryIssuer()})

	tests := []struct {
		name   string
		form   Form
		field  string
		reason i18n.Key
	}{
		{"missing name", Form{Email: "a@b.co", Phone: "501234567"}, "name", i18n.WaitlistNameRequired},
		{"missing email", Form{Name: "A", Phone: "501234567"}, "email", i18n.WaitlistEmailRequired},
		{"bad email", Form{Name: "A", Email: "not-an-email", Phone: "501234567"}, "email", i18n.WaitlistEmailInvalid},
		{"display name email", Form{Name: "A", Email: "A <a@b.co>", Phone: "501234567"}, "email", i18n.WaitlistEmailInvalid},
		{"missing phone", Form{Name: "A", Email: "a@b.co"}, "phone", i18n.WaitlistPhoneRequired},
		{"landline", Form{Name: "A", Email: "a@b.co", Phone: "112345678"}, "phone", i18n.WaitlistPhoneInvalid},
		{"too short", Form{Name: "A", Email: "a@b.co", Phone: "50123456"}, "phone", i18n.WaitlistPhoneInvalid},
		{"letters", Form{Name: "A", Email: "a@b.co", Phone: "50123456x"}, "phone", i18n.WaitlistPhoneInvalid},
	}
	for _, tt := range tests {
		_, err := svc.Validate(tt.form)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected validation error, got %v", tt.name, err)
		}
		if verr.Field != tt.field || verr.Reason != tt.reason {
			t.Fatalf("%s: got %s/%s", tt.name, verr.Field, verr.Reason)
		}
	}
}

func TestNormalizePhoneFormats(t *testing.T) {
	inputs := []string{
		"501234567",
		"0501234567",
		"+966501234567",
		"00966 50 123 4567",
		"966-50-123-4567",
		"(050) 123.4567",
		"٠٥٠١٢٣٤٥٦٧",
	}
	for _, in := range inputs {
		got, err := NormalizePhone(in, "+966")
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if got != "+966501234567" {
			t.Fatalf("%q: got %s", in, got)
		}
	}
}

func TestStatusLookup(t *testing.T) {
	f := newFixture(t)
	res, _ := f.svc.Submit(context.Background(), validForm())

	st, err := f.svc.Status(context.Background(), res.StatusID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Position != 1 || st.Points != InitialPoints || st.DisplayAlias == "" {
		t.Fatalf("unexpected status %+v", st)
	}
	if st.TierLabel == "" || st.TierLabel == string(i18n.TierStandard) {
		t.Fatalf("tier label not translated: %q", st.TierLabel)
	}
	if _, err := f.svc.Status(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

type brokenRepo struct {
	Repository
	err error
}

func (r brokenRepo) Create(context.Context, Entrant) error { return r.err }

func TestSubmitInsertFailureIsHard(t *testing.T) {
	f := newFixture(t)
	insertErr := errors.New("referral code conflict")
	f.svc.Repo = brokenRepo{Repository: NewMemoryRepository(), err: insertErr}

	res, err := f.svc.Submit(context.Background(), validForm())
	if !errors.Is(err, insertErr) {
		t.Fatalf("expected insert error, got %+v %v", res, err)
	}
	if _, err := f.sessions.Load(context.Background(), "sess-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("no session may be saved after a failed insert, got %v", err)
	}
	if len(f.notifier.sent) != 0 {
		t.Fatalf("no welcome may be sent after a failed insert")
	}
}
