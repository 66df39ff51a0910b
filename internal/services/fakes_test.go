package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campusvote/ballot-service/internal/config"
	"github.com/campusvote/ballot-service/internal/models"
	"github.com/campusvote/ballot-service/internal/utils"
)

// In-memory fakes mirroring the SQL semantics of the real repositories,
// including the conditional-update guards. Mutex-protected so the
// concurrent double-submit tests exercise real interleavings.

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// ---------------------------------------------------------------------
// Voter token repository
// ---------------------------------------------------------------------

type fakeVoterTokenRepo struct {
	mu      sync.Mutex
	tokens  map[uuid.UUID]*models.VoterToken
	rosters map[uuid.UUID][]models.ElectionVoter
}

func newFakeVoterTokenRepo() *fakeVoterTokenRepo {
	return &fakeVoterTokenRepo{
		tokens:  make(map[uuid.UUID]*models.VoterToken),
		rosters: make(map[uuid.UUID][]models.ElectionVoter),
	}
}

func cloneToken(t *models.VoterToken) *models.VoterToken {
	cp := *t
	return &cp
}

func (r *fakeVoterTokenRepo) put(t *models.VoterToken) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[t.ID] = cloneToken(t)
}

func (r *fakeVoterTokenRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.VoterToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok {
		return nil, nil
	}
	return cloneToken(t), nil
}

func (r *fakeVoterTokenRepo) GetByAccessToken(ctx context.Context, accessToken string) (*models.VoterToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.AccessToken != nil && *t.AccessToken == accessToken {
			return cloneToken(t), nil
		}
	}
	return nil, nil
}

func (r *fakeVoterTokenRepo) StoreOTP(
	ctx context.Context,
	id uuid.UUID,
	otpHash string,
	expiresAt, sentAt time.Time,
	maxResends int,
	cooldownCutoff time.Time,
) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok || t.Used || t.OTPResendCount >= maxResends {
		return false, nil
	}
	if t.LastOTPSentAt != nil && t.LastOTPSentAt.After(cooldownCutoff) {
		return false, nil
	}
	t.OTPHash = &otpHash
	t.OTPExpiresAt = &expiresAt
	t.OTPAttempts = 0
	t.OTPResendCount++
	t.LastOTPSentAt = &sentAt
	return true, nil
}

func (r *fakeVoterTokenRepo) IncrementOTPAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok {
		return 0, nil
	}
	t.OTPAttempts++
	return t.OTPAttempts, nil
}

func (r *fakeVoterTokenRepo) InvalidateOTP(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[id]; ok {
		t.OTPHash = nil
		t.OTPExpiresAt = nil
	}
	return nil
}

func (r *fakeVoterTokenRepo) ClearOTP(ctx context.Context, id uuid.UUID, otpHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok || t.OTPHash == nil || *t.OTPHash != otpHash {
		return false, nil
	}
	t.OTPHash = nil
	return true, nil
}

func (r *fakeVoterTokenRepo) MarkVerified(ctx context.Context, id uuid.UUID, verifiedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[id]; ok && t.VerifiedAt == nil {
		t.VerifiedAt = &verifiedAt
	}
	return nil
}

func (r *fakeVoterTokenRepo) StoreAccessToken(
	ctx context.Context,
	id uuid.UUID,
	accessToken string,
	expiresAt time.Time,
) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok || t.Used {
		return false, nil
	}
	t.AccessToken = &accessToken
	t.AccessTokenExpiresAt = &expiresAt
	return true, nil
}

func (r *fakeVoterTokenRepo) GenerateForElection(ctx context.Context, electionID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing := make(map[string]bool)
	for _, t := range r.tokens {
		if t.ElectionID == electionID {
			existing[t.StudentRef] = true
		}
	}

	created := 0
	for _, v := range r.rosters[electionID] {
		if existing[v.StudentRef] {
			continue
		}
		id := uuid.New()
		r.tokens[id] = &models.VoterToken{
			ID:          id,
			ElectionID:  electionID,
			StudentRef:  v.StudentRef,
			Email:       v.Email,
			Phone:       v.Phone,
			TokenSecret: utils.RandomString(48),
			CreatedAt:   time.Now(),
		}
		created++
	}
	return created, nil
}

func (r *fakeVoterTokenRepo) addRoster(electionID uuid.UUID, voters ...models.ElectionVoter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rosters[electionID] = append(r.rosters[electionID], voters...)
}

func (r *fakeVoterTokenRepo) CountForElection(ctx context.Context, electionID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.tokens {
		if t.ElectionID == electionID {
			n++
		}
	}
	return n, nil
}

// markUsed is the compare-and-set the vote fake relies on.
func (r *fakeVoterTokenRepo) markUsed(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok || t.Used {
		return false
	}
	t.Used = true
	return true
}

// ---------------------------------------------------------------------
// Vote repository
// ---------------------------------------------------------------------

type fakeVoteRepo struct {
	mu     sync.Mutex
	votes  map[string]models.Vote
	tokens *fakeVoterTokenRepo
}

func newFakeVoteRepo(tokens *fakeVoterTokenRepo) *fakeVoteRepo {
	return &fakeVoteRepo{
		votes:  make(map[string]models.Vote),
		tokens: tokens,
	}
}

func voteKey(electionID uuid.UUID, voterHash string, portfolioID uuid.UUID) string {
	return electionID.String() + "|" + voterHash + "|" + portfolioID.String()
}

func (r *fakeVoteRepo) CastBallot(
	ctx context.Context,
	tokenID uuid.UUID,
	electionID uuid.UUID,
	voterHash string,
	selections []models.Selection,
	castAt time.Time,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Uniqueness constraint: any duplicate aborts the whole ballot.
	for _, sel := range selections {
		if _, dup := r.votes[voteKey(electionID, voterHash, sel.PortfolioID)]; dup {
			return utils.ErrAlreadyVoted
		}
	}
	if !r.tokens.markUsed(tokenID) {
		return utils.ErrAlreadyVoted
	}
	for _, sel := range selections {
		r.votes[voteKey(electionID, voterHash, sel.PortfolioID)] = models.Vote{
			ID:          uuid.New(),
			ElectionID:  electionID,
			PortfolioID: sel.PortfolioID,
			CandidateID: sel.CandidateID,
			VoterHash:   voterHash,
			CastAt:      castAt,
		}
	}
	return nil
}

func (r *fakeVoteRepo) HasVoted(ctx context.Context, electionID uuid.UUID, voterHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.votes {
		if v.ElectionID == electionID && v.VoterHash == voterHash {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeVoteRepo) CountForElection(ctx context.Context, electionID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	hashes := make(map[string]bool)
	for _, v := range r.votes {
		if v.ElectionID == electionID {
			hashes[v.VoterHash] = true
		}
	}
	return len(hashes), nil
}

// ---------------------------------------------------------------------
// Election repository
// ---------------------------------------------------------------------

type fakeElectionRepo struct {
	mu        sync.Mutex
	elections map[uuid.UUID]*models.Election

	failListErr  error
	failMarkOnce error
}

func newFakeElectionRepo() *fakeElectionRepo {
	return &fakeElectionRepo{elections: make(map[uuid.UUID]*models.Election)}
}

func cloneElection(e *models.Election) *models.Election {
	cp := *e
	return &cp
}

func (r *fakeElectionRepo) put(e *models.Election) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.elections[e.ID] = cloneElection(e)
}

func (r *fakeElectionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Election, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.elections[id]
	if !ok {
		return nil, nil
	}
	return cloneElection(e), nil
}

func (r *fakeElectionRepo) ListDueForActivation(ctx context.Context, now time.Time) ([]*models.Election, error) {
	return r.list(func(e *models.Election) bool {
		return e.Status == models.ElectionStatusApproved && !e.StartTime.After(now)
	})
}

func (r *fakeElectionRepo) ListDueForClosing(ctx context.Context, now time.Time) ([]*models.Election, error) {
	return r.list(func(e *models.Election) bool {
		return e.Status == models.ElectionStatusLive && !e.EndTime.After(now)
	})
}

func (r *fakeElectionRepo) list(match func(*models.Election) bool) ([]*models.Election, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failListErr != nil {
		return nil, r.failListErr
	}
	var out []*models.Election
	for _, e := range r.elections {
		if match(e) {
			out = append(out, cloneElection(e))
		}
	}
	return out, nil
}

func (r *fakeElectionRepo) TransitionStatus(
	ctx context.Context,
	id uuid.UUID,
	from, to models.ElectionStatusType,
) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.elections[id]
	if !ok || e.Status != from {
		return false, nil
	}
	e.Status = to
	return true, nil
}

func (r *fakeElectionRepo) MarkVoterListGenerated(ctx context.Context, id uuid.UUID, count int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failMarkOnce != nil {
		err := r.failMarkOnce
		r.failMarkOnce = nil
		return false, err
	}
	e, ok := r.elections[id]
	if !ok || e.VoterListGenerated {
		return false, nil
	}
	e.VoterListGenerated = true
	e.EligibleVoterCount = count
	return true, nil
}

// ---------------------------------------------------------------------
// Ballot repository
// ---------------------------------------------------------------------

type fakeBallotRepo struct {
	mu      sync.Mutex
	ballots map[uuid.UUID][]models.Portfolio
}

func newFakeBallotRepo() *fakeBallotRepo {
	return &fakeBallotRepo{ballots: make(map[uuid.UUID][]models.Portfolio)}
}

func (r *fakeBallotRepo) put(electionID uuid.UUID, ballot []models.Portfolio) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ballots[electionID] = ballot
}

func (r *fakeBallotRepo) GetBallot(ctx context.Context, electionID uuid.UUID) ([]models.Portfolio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ballots[electionID], nil
}

// ---------------------------------------------------------------------
// Notifier
// ---------------------------------------------------------------------

type sentMessage struct {
	Destination string
	Subject     string
	Body        string
	SMS         bool
}

type fakeNotifier struct {
	mu      sync.Mutex
	sent    []sentMessage
	failErr error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{}
}

func (n *fakeNotifier) SendEmail(ctx context.Context, toEmail, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failErr != nil {
		return n.failErr
	}
	n.sent = append(n.sent, sentMessage{Destination: toEmail, Subject: subject, Body: body})
	return nil
}

func (n *fakeNotifier) SendSMS(ctx context.Context, toPhone, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failErr != nil {
		return n.failErr
	}
	n.sent = append(n.sent, sentMessage{Destination: toPhone, Body: body, SMS: true})
	return nil
}

func (n *fakeNotifier) lastBody() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return ""
	}
	return n.sent[len(n.sent)-1].Body
}

func (n *fakeNotifier) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// ---------------------------------------------------------------------
// Environment
// ---------------------------------------------------------------------

func testConfig() *config.Config {
	return &config.Config{
		OrganizationName:  "CampusVote",
		OTPLength:         config.DefaultOTPLength,
		OTPExpiry:         config.DefaultOTPExpiry,
		MaxOTPAttempts:    config.DefaultMaxOTPAttempts,
		MaxOTPResends:     config.DefaultMaxOTPResends,
		OTPResendCooldown: config.DefaultOTPResendCooldown,
		AccessTokenTTL:    config.DefaultAccessTokenTTL,
	}
}

type testEnv struct {
	cfg       *config.Config
	clock     *fakeClock
	tokens    *fakeVoterTokenRepo
	votes     *fakeVoteRepo
	elections *fakeElectionRepo
	ballots   *fakeBallotRepo
	notifier  *fakeNotifier

	otp          OTPService
	access       AccessService
	verification VerificationService
	voting       VotingService
	lifecycle    LifecycleService
}

func newTestEnv() *testEnv {
	cfg := testConfig()
	clock := newFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

	tokens := newFakeVoterTokenRepo()
	votes := newFakeVoteRepo(tokens)
	elections := newFakeElectionRepo()
	ballots := newFakeBallotRepo()
	notifier := newFakeNotifier()

	otp := NewOTPService(tokens, notifier, cfg)
	otp.(*otpService).now = clock.Now

	access := NewAccessService(tokens, elections, ballots, cfg)
	access.(*accessService).now = clock.Now

	verification := NewVerificationService(tokens, elections, otp, access, cfg)
	verification.(*verificationService).now = clock.Now

	voting := NewVotingService(tokens, access, votes)
	voting.(*votingService).now = clock.Now

	lifecycle := NewLifecycleService(elections, tokens)
	lifecycle.(*lifecycleService).now = clock.Now

	return &testEnv{
		cfg:          cfg,
		clock:        clock,
		tokens:       tokens,
		votes:        votes,
		elections:    elections,
		ballots:      ballots,
		notifier:     notifier,
		otp:          otp,
		access:       access,
		verification: verification,
		voting:       voting,
		lifecycle:    lifecycle,
	}
}

// seedLiveElection inserts a LIVE election with one two-candidate portfolio
// and a voter token ready for verification.
func (env *testEnv) seedLiveElection() (*models.Election, *models.VoterToken, []models.Portfolio) {
	now := env.clock.Now()
	election := &models.Election{
		ID:                 uuid.New(),
		Name:               "SRC General Election",
		Status:             models.ElectionStatusLive,
		StartTime:          now.Add(-time.Hour),
		EndTime:            now.Add(8 * time.Hour),
		VoterListGenerated: true,
	}
	env.elections.put(election)

	portfolioID := uuid.New()
	ballot := []models.Portfolio{
		{
			ID:          portfolioID,
			ElectionID:  election.ID,
			Title:       "President",
			BallotOrder: 1,
			Candidates: []models.Candidate{
				{ID: uuid.New(), PortfolioID: portfolioID, Name: "Ama Mensah"},
				{ID: uuid.New(), PortfolioID: portfolioID, Name: "Kofi Boateng"},
			},
		},
	}
	env.ballots.put(election.ID, ballot)

	token := &models.VoterToken{
		ID:          uuid.New(),
		ElectionID:  election.ID,
		StudentRef:  "10957823",
		Email:       "voter@st.example.edu",
		TokenSecret: utils.RandomString(48),
		CreatedAt:   now,
	}
	env.tokens.put(token)

	return election, token, ballot
}
