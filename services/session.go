package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/VP171097/vitality/models"
	"github.com/VP171097/vitality/utils"
)

// SessionState is the lifecycle of one authenticated working set.
type SessionState int32

const (
	StateUnauthenticated SessionState = iota
	StateAuthLoading
	StateSyncing
	StateReady
)

func (s SessionState) String() string {
	switch s {
	case StateAuthLoading:
		return "auth-loading"
	case StateSyncing:
		return "syncing"
	case StateReady:
		return "ready"
	default:
		return "unauthenticated"
	}
}

// writeTimeout bounds a background persistence write.
const writeTimeout = 10 * time.Second

// QuickFoods is the tap-to-add shortcut list.
var QuickFoods = []models.FoodEntry{
	{Name: "3 Boiled Eggs (1 Yolk)", Cals: 155, Protein: 13},
	{Name: "Jeera Water + Lemon", Cals: 10, Protein: 0},
	{Name: "Grilled Chicken (150g)", Cals: 250, Protein: 45},
	{Name: "Multigrain Roti (1)", Cals: 100, Protein: 3},
	{Name: "Dal (1 Bowl Thick)", Cals: 140, Protein: 8},
	{Name: "Almonds (10)", Cals: 70, Protein: 2},
	{Name: "Green Tea", Cals: 2, Protein: 0},
	{Name: "Clear Soup (Veg/Chicken)", Cals: 60, Protein: 4},
}

// Session is one user's in-memory working set, authoritative for the
// current session. Every user action mutates local state immediately,
// then persists a merge patch in the background; pushed snapshots
// reconcile last-write-wins, except that stale pushes (older version, or
// racing an in-flight local write) are dropped so optimistic updates are
// never visibly undone.
type Session struct {
	userID uint
	docs   DocumentGateway
	ai     AIGateway
	alerts *AlertService
	log    *logrus.Entry

	now func() time.Time

	mu       sync.Mutex
	state    SessionState
	settings models.Settings
	logs     []models.DailyLog
	food     models.FoodBuckets
	activity models.ActivityBuckets
	versions map[models.DocKind]int64
	pending  map[models.DocKind]int

	cancelSubs []func()
	bg         sync.WaitGroup
}

func NewSession(userID uint, docs DocumentGateway, ai AIGateway, alerts *AlertService) *Session {
	return &Session{
		userID:   userID,
		docs:     docs,
		ai:       ai,
		alerts:   alerts,
		log:      logrus.WithField("userID", userID),
		now:      time.Now,
		state:    StateAuthLoading,
		food:     models.FoodBuckets{},
		activity: models.ActivityBuckets{},
		versions: map[models.DocKind]int64{},
		pending:  map[models.DocKind]int{},
	}
}

// Start subscribes to the four document streams and blocks until every
// initial snapshot has been applied, then enters Ready. The streams are
// independent; later pushes apply in whatever order they arrive.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	s.state = StateSyncing
	s.mu.Unlock()

	for _, kind := range models.AllDocKinds {
		snap, ch, cancel, err := s.docs.LoadAndSubscribe(ctx, s.userID, kind)
		if err != nil {
			s.teardown()
			s.setState(StateUnauthenticated)
			return fmt.Errorf("subscribe %s: %w", kind, err)
		}
		s.mu.Lock()
		s.cancelSubs = append(s.cancelSubs, cancel)
		s.mu.Unlock()

		s.applySnapshot(snap)

		// The store may drop pushes when this reader lags. That is safe:
		// every push carries the full document, and our own writes bump
		// versions through persist without depending on the stream.
		s.bg.Add(1)
		go func() {
			defer s.bg.Done()
			for snap := range ch {
				s.applySnapshot(snap)
			}
		}()
	}

	s.setState(StateReady)
	return nil
}

func (s *Session) setState(st SessionState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// State reports the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SignOut cancels the subscriptions and clears every per-user cache,
// settings included.
func (s *Session) SignOut() {
	s.teardown()

	s.mu.Lock()
	s.state = StateUnauthenticated
	s.settings = models.Settings{}
	s.logs = nil
	s.food = models.FoodBuckets{}
	s.activity = models.ActivityBuckets{}
	s.versions = map[models.DocKind]int64{}
	s.pending = map[models.DocKind]int{}
	s.mu.Unlock()

	s.bg.Wait()
}

func (s *Session) teardown() {
	s.mu.Lock()
	cancels := s.cancelSubs
	s.cancelSubs = nil
	s.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}

// applySnapshot reconciles a pushed document into local state.
func (s *Session) applySnapshot(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.Version < s.versions[snap.Kind] {
		return // stale push, already superseded locally
	}
	if s.pending[snap.Kind] > 0 && snap.Version <= s.versions[snap.Kind] {
		return // a local write is in flight; don't revert the optimistic state
	}

	switch snap.Kind {
	case models.DocSettings:
		var settings models.Settings
		if err := json.Unmarshal(snap.Data, &settings); err != nil {
			s.log.WithError(err).Warn("bad settings snapshot")
			return
		}
		s.settings = settings
	case models.DocLogs:
		var doc models.LogsDoc
		if err := json.Unmarshal(snap.Data, &doc); err != nil {
			s.log.WithError(err).Warn("bad logs snapshot")
			return
		}
		s.logs = doc.Data
	case models.DocFood:
		var doc models.FoodDoc
		if err := json.Unmarshal(snap.Data, &doc); err != nil {
			s.log.WithError(err).Warn("bad food snapshot")
			return
		}
		if doc.Data == nil {
			doc.Data = models.FoodBuckets{}
		}
		s.food = doc.Data
	case models.DocActivity:
		var doc models.ActivityDoc
		if err := json.Unmarshal(snap.Data, &doc); err != nil {
			s.log.WithError(err).Warn("bad activity snapshot")
			return
		}
		if doc.Data == nil {
			doc.Data = models.ActivityBuckets{}
		}
		s.activity = doc.Data
	}
	s.versions[snap.Kind] = snap.Version
}

// persist fires the background merge-patch write for one optimistic
// update. Failures surface as a warning toast; the local state stays as
// the user left it.
func (s *Session) persist(kind models.DocKind, patch map[string]any) {
	s.mu.Lock()
	s.pending[kind]++
	s.mu.Unlock()

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		version, err := s.docs.WriteMergePatch(ctx, s.userID, kind, patch)

		s.mu.Lock()
		s.pending[kind]--
		if err == nil && version > s.versions[kind] {
			s.versions[kind] = version
		}
		s.mu.Unlock()

		if err != nil {
			s.log.WithError(err).WithField("kind", kind).Warn("persistence write failed")
			if s.alerts != nil {
				s.alerts.Emit(s.userID, "warning", "Could not save your changes. They may be lost on reload.")
			}
		}
	}()
}

// Today is the session-local calendar date.
func (s *Session) Today() string {
	return s.now().Format(models.DateLayout)
}

// Settings returns a copy of the current settings document.
func (s *Session) Settings() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Logs returns a copy of the daily log history in ascending date order.
func (s *Session) Logs() []models.DailyLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.DailyLog, len(s.logs))
	copy(out, s.logs)
	return out
}

// TodayDraft is the tracker form prefill: today's saved entry when it
// exists, otherwise a fresh draft carrying the last known weight forward.
func (s *Session) TodayDraft() models.DailyLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.Today()
	for _, l := range s.logs {
		if l.Date == today {
			return l
		}
	}
	draft := models.DailyLog{Date: today, Weight: s.settings.StartWeight}
	if len(s.logs) > 0 {
		draft.Weight = s.logs[len(s.logs)-1].Weight
	}
	return draft
}

// SaveDailyLog overwrites today's entry (at most one per date; the latest
// save wins). A zero weight carries the previous weight forward.
func (s *Session) SaveDailyLog(entry models.DailyLog) models.DailyLog {
	s.mu.Lock()

	today := s.Today()
	kept := s.logs[:0:0]
	for _, l := range s.logs {
		if l.Date != today {
			kept = append(kept, l)
		}
	}

	entry.Date = today
	if entry.Weight == 0 {
		entry.Weight = s.settings.StartWeight
		if len(kept) > 0 {
			entry.Weight = kept[len(kept)-1].Weight
		}
	}

	kept = append(kept, entry)
	sort.Slice(kept, func(i, j int) bool { return kept[i].Date < kept[j].Date })
	s.logs = kept

	patch := map[string]any{"data": kept}
	s.mu.Unlock()

	s.persist(models.DocLogs, patch)
	return entry
}

// SettingsForm carries the editable settings fields. startDate is fixed
// at creation and gender is preserved as stored.
type SettingsForm struct {
	Name        string  `json:"name" binding:"required"`
	Height      float64 `json:"height" binding:"required"`
	Age         float64 `json:"age" binding:"required"`
	StartWeight float64 `json:"startWeight" binding:"required"`
	GoalWeight  float64 `json:"goalWeight" binding:"required"`
	EndDate     string  `json:"endDate" binding:"required"`
}

// UpdateSettings overwrites the settings document wholesale from the form.
func (s *Session) UpdateSettings(form SettingsForm) models.Settings {
	s.mu.Lock()

	s.settings.Name = form.Name
	s.settings.Height = form.Height
	s.settings.Age = form.Age
	s.settings.StartWeight = form.StartWeight
	s.settings.GoalWeight = form.GoalWeight
	s.settings.EndDate = form.EndDate

	updated := s.settings
	s.mu.Unlock()

	s.persist(models.DocSettings, settingsPatch(updated))
	return updated
}

func settingsPatch(settings models.Settings) map[string]any {
	blob, _ := json.Marshal(settings)
	patch := map[string]any{}
	_ = json.Unmarshal(blob, &patch)
	return patch
}

// TodayFood returns today's bucket in log order.
func (s *Session) TodayFood() []models.FoodEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.food[s.Today()]
	out := make([]models.FoodEntry, len(bucket))
	copy(out, bucket)
	return out
}

// AddFood appends a food entry to today's bucket, assigning the creation
// timestamp as id.
func (s *Session) AddFood(name string, cals, protein int) models.FoodEntry {
	entry := models.FoodEntry{
		ID:      s.now().UnixMilli(),
		Name:    name,
		Cals:    cals,
		Protein: protein,
	}

	s.mu.Lock()
	today := s.Today()
	s.food[today] = append(s.food[today], entry)
	// clone before unlocking: the persist goroutine marshals the patch
	// while later handlers keep mutating the live map
	patch := map[string]any{"data": s.food.Clone()}
	s.mu.Unlock()

	s.persist(models.DocFood, patch)
	return entry
}

// AddFoodDescribed parses a natural-language description through the AI
// gateway and logs the result.
func (s *Session) AddFoodDescribed(ctx context.Context, description string) (models.FoodEntry, error) {
	est, err := s.ai.EstimateFood(ctx, description)
	if err != nil {
		return models.FoodEntry{}, err
	}
	return s.AddFood(est.Name, est.Cals, est.Protein), nil
}

// AddQuickFood logs one of the shortcut foods by list index.
func (s *Session) AddQuickFood(index int) (models.FoodEntry, error) {
	if index < 0 || index >= len(QuickFoods) {
		return models.FoodEntry{}, errors.New("unknown quick food")
	}
	item := QuickFoods[index]
	return s.AddFood(item.Name, item.Cals, item.Protein), nil
}

// RemoveFood deletes one entry from today's bucket by id.
func (s *Session) RemoveFood(id int64) bool {
	s.mu.Lock()

	today := s.Today()
	bucket := s.food[today]
	kept := bucket[:0:0]
	removed := false
	for _, f := range bucket {
		if f.ID == id {
			removed = true
			continue
		}
		kept = append(kept, f)
	}
	if !removed {
		s.mu.Unlock()
		return false
	}
	s.food[today] = kept
	patch := map[string]any{"data": s.food.Clone()}
	s.mu.Unlock()

	s.persist(models.DocFood, patch)
	return true
}

// TodayActivity returns today's activity bucket.
func (s *Session) TodayActivity() []models.ActivityEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.activity[s.Today()]
	out := make([]models.ActivityEntry, len(bucket))
	copy(out, bucket)
	return out
}

// LogActivity estimates calories burned for a described activity and logs
// the result.
func (s *Session) LogActivity(ctx context.Context, description string, durationMinutes int) (models.ActivityEntry, error) {
	s.mu.Lock()
	weight := CurrentWeight(s.logs, s.settings)
	s.mu.Unlock()

	est, err := s.ai.EstimateActivity(ctx, description, durationMinutes, weight)
	if err != nil {
		return models.ActivityEntry{}, err
	}

	entry := models.ActivityEntry{
		ID:       s.now().UnixMilli(),
		Name:     est.Name,
		Calories: est.Calories,
	}

	s.mu.Lock()
	today := s.Today()
	s.activity[today] = append(s.activity[today], entry)
	patch := map[string]any{"data": s.activity.Clone()}
	s.mu.Unlock()

	s.persist(models.DocActivity, patch)
	return entry, nil
}

// RemoveActivity deletes one entry from today's bucket by id.
func (s *Session) RemoveActivity(id int64) bool {
	s.mu.Lock()

	today := s.Today()
	bucket := s.activity[today]
	kept := bucket[:0:0]
	removed := false
	for _, a := range bucket {
		if a.ID == id {
			removed = true
			continue
		}
		kept = append(kept, a)
	}
	if !removed {
		s.mu.Unlock()
		return false
	}
	s.activity[today] = kept
	patch := map[string]any{"data": s.activity.Clone()}
	s.mu.Unlock()

	s.persist(models.DocActivity, patch)
	return true
}

// DashboardStats is the header/dashboard figure set.
type DashboardStats struct {
	Name            string  `json:"name"`
	CurrentWeight   float64 `json:"currentWeight"`
	GoalWeight      float64 `json:"goalWeight"`
	TotalLost       float64 `json:"totalLost"`
	DaysRemaining   int     `json:"daysRemaining"`
	CalorieGoal     int     `json:"calorieGoal"`
	TodayCalories   int     `json:"todayCalories"`
	TodayProtein    int     `json:"todayProtein"`
	TodayBurned     int     `json:"todayBurned"`
	RemainingCals   int     `json:"remainingCals"`
	TodayHabitScore int     `json:"todayHabitScore"`
	BMI             float64 `json:"bmi,omitempty"`
	BMICategory     string  `json:"bmiCategory,omitempty"`
}

// Dashboard computes the derived figures from the working set.
func (s *Session) Dashboard() DashboardStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.Today()
	current := CurrentWeight(s.logs, s.settings)
	goal := DynamicCalorieGoal(current, s.settings.Height, s.settings.Age)
	todayCals := s.food.Calories(today)

	stats := DashboardStats{
		Name:          s.settings.Name,
		CurrentWeight: current,
		GoalWeight:    s.settings.GoalWeight,
		TotalLost:     TotalLost(s.logs, s.settings),
		DaysRemaining: DaysRemaining(s.settings, s.now()),
		CalorieGoal:   goal,
		TodayCalories: todayCals,
		TodayProtein:  s.food.Protein(today),
		TodayBurned:   s.activity.Calories(today),
	}
	if remaining := goal - todayCals; remaining > 0 {
		stats.RemainingCals = remaining
	}
	for _, l := range s.logs {
		if l.Date == today {
			stats.TodayHabitScore = l.HabitScore()
			break
		}
	}
	if bmi, err := utils.BMI(s.settings.Height, current); err == nil {
		stats.BMI = round1(bmi)
		stats.BMICategory = utils.BMICategory(bmi)
	}
	return stats
}

// Series builds the full chart series for the analytics view.
func (s *Session) Series() []DayPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return BuildSeries(s.settings, s.logs, s.food, s.activity)
}

// CoachStats assembles the snapshot sent to the coaching prompt.
func (s *Session) CoachStats() CoachStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.Today()
	current := CurrentWeight(s.logs, s.settings)

	recent := s.logs
	if len(recent) > 7 {
		recent = recent[len(recent)-7:]
	}
	habits := make([]HabitStats, 0, len(recent))
	for _, l := range recent {
		habits = append(habits, HabitStats{Date: l.Date, NoSugar: l.NoSugar, LowSalt: l.LowSalt})
	}

	return CoachStats{
		CurrentWeight: current,
		DaysLeft:      DaysRemaining(s.settings, s.now()),
		TotalLost:     TotalLost(s.logs, s.settings),
		RecentHabits:  habits,
		TodayCals:     s.food.Calories(today),
		TargetCals:    DynamicCalorieGoal(current, s.settings.Height, s.settings.Age),
		GoalWeight:    s.settings.GoalWeight,
		EndDate:       s.settings.EndDate,
	}
}

// SessionManager keeps one live session per authenticated user.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[uint]*Session
	syncing  map[uint]chan struct{}

	docs   DocumentGateway
	ai     AIGateway
	alerts *AlertService
}

func NewSessionManager(docs DocumentGateway, ai AIGateway, alerts *AlertService) *SessionManager {
	return &SessionManager{
		sessions: make(map[uint]*Session),
		syncing:  make(map[uint]chan struct{}),
		docs:     docs,
		ai:       ai,
		alerts:   alerts,
	}
}

// Attach returns the user's live session, creating and syncing one on
// first use. Creation blocks until the initial snapshots have arrived,
// but only for callers of the same user: the manager lock guards the
// maps alone, and concurrent first requests for one user share a single
// sync instead of each loading the documents again.
func (m *SessionManager) Attach(ctx context.Context, userID uint) (*Session, error) {
	m.mu.Lock()
	for {
		if sess, ok := m.sessions[userID]; ok && sess.State() == StateReady {
			m.mu.Unlock()
			return sess, nil
		}
		ch, ok := m.syncing[userID]
		if !ok {
			break
		}
		m.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		m.mu.Lock()
	}
	ch := make(chan struct{})
	m.syncing[userID] = ch
	m.mu.Unlock()

	sess := NewSession(userID, m.docs, m.ai, m.alerts)
	err := sess.Start(ctx)

	m.mu.Lock()
	delete(m.syncing, userID)
	if err == nil {
		m.sessions[userID] = sess
	}
	m.mu.Unlock()
	close(ch)

	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Detach signs the user's session out and forgets it.
func (m *SessionManager) Detach(userID uint) {
	m.mu.Lock()
	sess, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if ok {
		sess.SignOut()
	}
}
