package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"hamkae-backend/internal/common"
	"hamkae-backend/internal/models"
)

// memStore is an in-memory stand-in for the database store, covering
// the slices the services consume. It mirrors the store's semantics:
// guarded single-row transitions and ledger/cache coupling.
type memStore struct {
	mu sync.Mutex

	users   map[string]*models.User
	markers map[string]*models.Marker
	photos  map[string]*models.Photo
	ledger  []models.PointHistory
	rewards map[string]*models.Reward
	pins    map[string]*models.RewardPin
	tasks   map[string]*models.VerificationTask
}

func newMemStore() *memStore {
	return &memStore{
		users:   make(map[string]*models.User),
		markers: make(map[string]*models.Marker),
		photos:  make(map[string]*models.Photo),
		rewards: make(map[string]*models.Reward),
		pins:    make(map[string]*models.RewardPin),
		tasks:   make(map[string]*models.VerificationTask),
	}
}

func (m *memStore) addUser(points int) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &models.User{
		ID:       uuid.New().String(),
		Username: "user-" + uuid.New().String()[:8],
		Name:     "Test User",
		Points:   points,
	}
	m.users[u.ID] = u
	return u
}

func (m *memStore) addMarker(reportedBy string) *models.Marker {
	m.mu.Lock()
	defer m.mu.Unlock()
	mk := &models.Marker{
		ID:          uuid.New().String(),
		Lat:         37.5665,
		Lng:         126.978,
		Description: "trash pile by the bench",
		Status:      models.MarkerStatusActive,
		ReportedBy:  reportedBy,
		CreatedAt:   time.Now().Unix(),
		UpdatedAt:   time.Now().Unix(),
	}
	m.markers[mk.ID] = mk
	return mk
}

func (m *memStore) addPhoto(markerID, userID, photoType string, createdAt int64) *models.Photo {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &models.Photo{
		ID:                 uuid.New().String(),
		MarkerID:           markerID,
		UserID:             userID,
		ImagePath:          p2ref(photoType, createdAt),
		Type:               photoType,
		VerificationStatus: models.VerificationPending,
		CreatedAt:          createdAt,
	}
	m.photos[p.ID] = p
	return p
}

func p2ref(photoType string, createdAt int64) string {
	return fmt.Sprintf("%s-%d.jpg", photoType, createdAt)
}

// --- PointsStore ---

func (m *memStore) CreditUser(userID string, points int, description string, relatedPhotoID *string) (*models.PointHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return nil, common.ErrNotFound
	}

	entry := models.PointHistory{
		ID:             uuid.New().String(),
		UserID:         userID,
		Points:         points,
		Type:           models.PointTypeEarned,
		Description:    description,
		RelatedPhotoID: relatedPhotoID,
		CreatedAt:      time.Now().Unix(),
	}
	m.ledger = append(m.ledger, entry)
	user.Points += points
	return &entry, nil
}

func (m *memStore) DebitUser(userID string, points int, description string) (*models.PointHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	if user.Points < points {
		return nil, common.ErrInsufficientBalance
	}

	entry := models.PointHistory{
		ID:          uuid.New().String(),
		UserID:      userID,
		Points:      -points,
		Type:        models.PointTypeUsed,
		Description: description,
		CreatedAt:   time.Now().Unix(),
	}
	m.ledger = append(m.ledger, entry)
	user.Points -= points
	return &entry, nil
}

func (m *memStore) UserBalance(userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return 0, common.ErrNotFound
	}
	return user.Points, nil
}

func (m *memStore) replayBalance(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := 0
	for _, e := range m.ledger {
		if e.UserID == userID {
			sum += e.Points
		}
	}
	return sum
}

func (m *memStore) ledgerEntries(userID string) []models.PointHistory {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PointHistory
	for _, e := range m.ledger {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

func (m *memStore) TotalEarnedPoints(userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := 0
	for _, e := range m.ledger {
		if e.UserID == userID && e.Type == models.PointTypeEarned {
			sum += e.Points
		}
	}
	return sum, nil
}

func (m *memStore) TotalUsedPoints(userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := 0
	for _, e := range m.ledger {
		if e.UserID == userID && e.Type == models.PointTypeUsed {
			sum -= e.Points
		}
	}
	return sum, nil
}

// --- VerificationStore ---

func (m *memStore) MarkerByID(id string) (*models.Marker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	marker, ok := m.markers[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	copy := *marker
	return &copy, nil
}

func (m *memStore) PhotosByMarkerAndType(markerID, photoType string) ([]models.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Photo
	for _, p := range m.photos {
		if p.MarkerID == markerID && p.Type == photoType {
			out = append(out, *p)
		}
	}
	// Deterministic ordering: created_at, then id.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt < out[i].CreatedAt ||
				(out[j].CreatedAt == out[i].CreatedAt && out[j].ID < out[i].ID) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (m *memStore) ApplyVerdict(photoID, status, judgeResponse string, confidence *float64, verifiedAt int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.photos[photoID]
	if !ok || p.VerificationStatus != models.VerificationPending {
		return false, nil
	}
	p.VerificationStatus = status
	p.JudgeResponse = &judgeResponse
	p.Confidence = confidence
	p.VerifiedAt = &verifiedAt
	return true, nil
}

func (m *memStore) MarkMarkerCleaned(id string, updatedAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	marker, ok := m.markers[id]
	if !ok {
		return common.ErrNotFound
	}
	if marker.Status == models.MarkerStatusActive {
		marker.Status = models.MarkerStatusCleaned
		marker.UpdatedAt = updatedAt
	}
	return nil
}

// --- RewardStore ---

func (m *memStore) CreateReward(r *models.Reward) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *r
	m.rewards[r.ID] = &copy
	return nil
}

func (m *memStore) DeleteReward(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rewards, id)
	for pinID, pin := range m.pins {
		if pin.RewardID == id {
			delete(m.pins, pinID)
		}
	}
	return nil
}

func (m *memStore) RewardByID(id string) (*models.Reward, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rewards[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	copy := *r
	return &copy, nil
}

func (m *memStore) RewardsByUser(userID string) ([]models.Reward, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Reward
	for _, r := range m.rewards {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) RewardsByUserAndStatus(userID, status string) ([]models.Reward, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Reward
	for _, r := range m.rewards {
		if r.UserID == userID && r.Status == status {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) InsertPin(p *models.RewardPin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.pins {
		if existing.PinNumber == p.PinNumber {
			return common.ErrDuplicateCode
		}
	}
	copy := *p
	m.pins[p.ID] = &copy
	return nil
}

func (m *memStore) PinByNumber(pinNumber string) (*models.RewardPin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.pins {
		if p.PinNumber == pinNumber {
			copy := *p
			return &copy, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memStore) PinByReward(rewardID string) (*models.RewardPin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.pins {
		if p.RewardID == rewardID {
			copy := *p
			return &copy, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memStore) PinsByUser(userID string) ([]models.RewardPin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.RewardPin
	for _, p := range m.pins {
		r, ok := m.rewards[p.RewardID]
		if ok && r.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) MarkPinUsed(id string, usedAt int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pins[id]
	if !ok || p.IsUsed {
		return false, nil
	}
	p.IsUsed = true
	p.UsedAt = &usedAt
	return true, nil
}

// --- TaskStore ---

func (m *memStore) EnqueueVerificationTask(t *models.VerificationTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *t
	m.tasks[t.ID] = &copy
	return nil
}

func (m *memStore) PendingVerificationTasks(limit int) ([]models.VerificationTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.VerificationTask
	for _, t := range m.tasks {
		if t.Status == models.TaskStatusPending {
			out = append(out, *t)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memStore) CompleteVerificationTask(id string, processedAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return common.ErrNotFound
	}
	t.Status = models.TaskStatusDone
	t.ProcessedAt = &processedAt
	return nil
}

func (m *memStore) RecordTaskFailure(id, lastError string, maxAttempts int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return common.ErrNotFound
	}
	t.Attempts++
	t.LastError = &lastError
	if t.Attempts >= maxAttempts {
		t.Status = models.TaskStatusFailed
	}
	return nil
}
