package service

import (
	"context"
	"errors"
	"time"

	"gopkg.in/guregu/null.v4"

	"github.com/nrngooooo/parkingpayBE/internal/domain"
	"github.com/nrngooooo/parkingpayBE/internal/repository"
)

// fakeStore là bản in-memory của tầng lưu trữ, đủ để test service mà không cần
// PostgreSQL. fakeAtomic chụp snapshot trước khi chạy fn và khôi phục khi fn
// trả lỗi, mô phỏng ngữ nghĩa rollback.
type fakeStore struct {
	vehicles  map[int]domain.Vehicle
	plateIdx  map[string]int
	sessions  map[int]domain.ParkingSession
	tariffs   map[int]domain.Tariff
	payments  map[int]domain.Payment
	methods   map[int]domain.PaymentMethod
	employees map[int]domain.Employee
	kiosks    map[int]domain.Kiosk
	nextID    int

	failSetPaid bool // tiêm lỗi cho SetPaidStatus để test rollback
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		vehicles:  map[int]domain.Vehicle{},
		plateIdx:  map[string]int{},
		sessions:  map[int]domain.ParkingSession{},
		tariffs:   map[int]domain.Tariff{},
		payments:  map[int]domain.Payment{},
		methods:   map[int]domain.PaymentMethod{},
		employees: map[int]domain.Employee{},
		kiosks:    map[int]domain.Kiosk{},
	}
}

func (s *fakeStore) id() int {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) clone() *fakeStore {
	c := newFakeStore()
	c.nextID = s.nextID
	c.failSetPaid = s.failSetPaid
	for k, v := range s.vehicles {
		c.vehicles[k] = v
	}
	for k, v := range s.plateIdx {
		c.plateIdx[k] = v
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	for k, v := range s.tariffs {
		c.tariffs[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.methods {
		c.methods[k] = v
	}
	for k, v := range s.employees {
		c.employees[k] = v
	}
	for k, v := range s.kiosks {
		c.kiosks[k] = v
	}
	return c
}

func (s *fakeStore) repos() repository.Repositories {
	return repository.Repositories{
		Vehicles:       &fakeVehicleRepo{s},
		Sessions:       &fakeSessionRepo{s},
		Tariffs:        &fakeTariffRepo{s},
		Payments:       &fakePaymentRepo{s},
		PaymentMethods: &fakeMethodRepo{s},
		Employees:      &fakeEmployeeRepo{s},
		Kiosks:         &fakeKioskRepo{s},
	}
}

type fakeAtomic struct {
	store *fakeStore

	// failCommit làm hỏng bước commit SAU KHI fn đã ghi xong toàn bộ,
	// để test chứng minh các ghi trong transaction không lộ ra ngoài.
	failCommit bool
}

func (a *fakeAtomic) RunInTx(ctx context.Context, fn func(r repository.Repositories) error) error {
	snapshot := a.store.clone()
	if err := fn(a.store.repos()); err != nil {
		*a.store = *snapshot
		return err
	}
	if a.failCommit {
		*a.store = *snapshot
		return errors.New("commit transaction thất bại")
	}
	return nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// fakeBlobStore lưu blob vào map; fail=true mô phỏng backend hỏng.
type fakeBlobStore struct {
	saved map[string][]byte
	fail  bool
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{saved: map[string][]byte{}}
}

func (b *fakeBlobStore) Save(ctx context.Context, path string, data []byte) (string, error) {
	if b.fail {
		return "", errors.New("backend lưu trữ không khả dụng")
	}
	b.saved[path] = data
	return path, nil
}

type fakeVehicleRepo struct{ s *fakeStore }

func (r *fakeVehicleRepo) GetOrCreate(ctx context.Context, plate string) (*domain.Vehicle, bool, error) {
	if id, ok := r.s.plateIdx[plate]; ok {
		v := r.s.vehicles[id]
		return &v, false, nil
	}
	v := domain.Vehicle{ID: r.s.id(), Plate: plate, CreatedAt: time.Now().UTC()}
	r.s.vehicles[v.ID] = v
	r.s.plateIdx[plate] = v.ID
	return &v, true, nil
}

func (r *fakeVehicleRepo) FindByPlate(ctx context.Context, plate string) (*domain.Vehicle, error) {
	id, ok := r.s.plateIdx[plate]
	if !ok {
		return nil, repository.ErrNotFound
	}
	v := r.s.vehicles[id]
	return &v, nil
}

func (r *fakeVehicleRepo) FindByID(ctx context.Context, id int) (*domain.Vehicle, error) {
	v, ok := r.s.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

func (r *fakeVehicleRepo) FindFirstByPlatePrefix(ctx context.Context, prefix string) (*domain.Vehicle, error) {
	var best *domain.Vehicle
	for id, v := range r.s.vehicles {
		if len(v.Plate) >= len(prefix) && v.Plate[:len(prefix)] == prefix {
			if best == nil || id < best.ID {
				vv := v
				best = &vv
			}
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	return best, nil
}

func (r *fakeVehicleRepo) UpdateEntryPhoto(ctx context.Context, id int, path string) error {
	v, ok := r.s.vehicles[id]
	if !ok {
		return repository.ErrNotFound
	}
	v.EntryPhotoPath = null.StringFrom(path)
	r.s.vehicles[id] = v
	return nil
}

func (r *fakeVehicleRepo) UpdatePlatePhoto(ctx context.Context, id int, path string) error {
	v, ok := r.s.vehicles[id]
	if !ok {
		return repository.ErrNotFound
	}
	v.PlatePhotoPath = null.StringFrom(path)
	r.s.vehicles[id] = v
	return nil
}

func (r *fakeVehicleRepo) SetEmployeeFlag(ctx context.Context, id int, isEmployee bool) error {
	v, ok := r.s.vehicles[id]
	if !ok {
		return repository.ErrNotFound
	}
	v.IsEmployeeVehicle = isEmployee
	r.s.vehicles[id] = v
	return nil
}

type fakeSessionRepo struct{ s *fakeStore }

func (r *fakeSessionRepo) Create(ctx context.Context, session *domain.ParkingSession) (*domain.ParkingSession, error) {
	for _, existing := range r.s.sessions {
		if existing.VehicleID == session.VehicleID && !existing.ExitTime.Valid {
			return nil, repository.ErrSessionAlreadyOpen
		}
	}
	created := *session
	created.ID = r.s.id()
	created.CreatedAt = time.Now().UTC()
	r.s.sessions[created.ID] = created
	return &created, nil
}

func (r *fakeSessionRepo) FindByID(ctx context.Context, id int) (*domain.ParkingSession, error) {
	sess, ok := r.s.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sess, nil
}

func (r *fakeSessionRepo) FindByIDForUpdate(ctx context.Context, id int) (*domain.ParkingSession, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeSessionRepo) FindActiveByVehicleID(ctx context.Context, vehicleID int) (*domain.ParkingSession, error) {
	for _, sess := range r.s.sessions {
		if sess.VehicleID == vehicleID && !sess.ExitTime.Valid {
			s := sess
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeSessionRepo) Close(ctx context.Context, session *domain.ParkingSession) (*domain.ParkingSession, error) {
	existing, ok := r.s.sessions[session.ID]
	if !ok || existing.ExitTime.Valid {
		return nil, repository.ErrNotFound
	}
	existing.ExitTime = session.ExitTime
	existing.DurationMinutes = session.DurationMinutes
	existing.ExitPhotoPath = session.ExitPhotoPath
	existing.UpdatedAt = time.Now().UTC()
	r.s.sessions[session.ID] = existing
	return &existing, nil
}

func (r *fakeSessionRepo) SetPaidStatus(ctx context.Context, id int, paid bool) error {
	if r.s.failSetPaid {
		return errors.New("lỗi ghi paid_status (tiêm trong test)")
	}
	sess, ok := r.s.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	sess.PaidStatus = paid
	r.s.sessions[id] = sess
	return nil
}

func (r *fakeSessionRepo) ListOpen(ctx context.Context) ([]domain.ParkingSession, error) {
	var out []domain.ParkingSession
	for _, sess := range r.s.sessions {
		if !sess.ExitTime.Valid {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) ListByVehicleID(ctx context.Context, vehicleID int) ([]domain.ParkingSession, error) {
	var out []domain.ParkingSession
	for _, sess := range r.s.sessions {
		if sess.VehicleID == vehicleID {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) ListAll(ctx context.Context) ([]domain.ParkingSession, error) {
	var out []domain.ParkingSession
	for _, sess := range r.s.sessions {
		out = append(out, sess)
	}
	return out, nil
}

type fakeTariffRepo struct{ s *fakeStore }

func (r *fakeTariffRepo) Create(ctx context.Context, tariff *domain.Tariff) (*domain.Tariff, error) {
	created := *tariff
	created.ID = r.s.id()
	created.CreatedAt = time.Now().UTC()
	r.s.tariffs[created.ID] = created
	return &created, nil
}

func (r *fakeTariffRepo) FindActive(ctx context.Context) (*domain.Tariff, error) {
	var found *domain.Tariff
	for _, t := range r.s.tariffs {
		if t.IsActive {
			if found != nil {
				return nil, repository.ErrAmbiguousTariff
			}
			tt := t
			found = &tt
		}
	}
	if found == nil {
		return nil, repository.ErrNoActiveTariff
	}
	return found, nil
}

func (r *fakeTariffRepo) FindAll(ctx context.Context) ([]domain.Tariff, error) {
	var out []domain.Tariff
	for _, t := range r.s.tariffs {
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeTariffRepo) Activate(ctx context.Context, id int) error {
	if _, ok := r.s.tariffs[id]; !ok {
		return repository.ErrNotFound
	}
	for k, t := range r.s.tariffs {
		t.IsActive = k == id
		r.s.tariffs[k] = t
	}
	return nil
}

type fakePaymentRepo struct{ s *fakeStore }

func (r *fakePaymentRepo) Create(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	created := *payment
	created.ID = r.s.id()
	created.CreatedAt = time.Now().UTC()
	r.s.payments[created.ID] = created
	return &created, nil
}

func (r *fakePaymentRepo) FindByID(ctx context.Context, id int) (*domain.Payment, error) {
	p, ok := r.s.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *fakePaymentRepo) FindByIDForUpdate(ctx context.Context, id int) (*domain.Payment, error) {
	return r.FindByID(ctx, id)
}

func (r *fakePaymentRepo) UpdateStatus(ctx context.Context, id int, status domain.PaymentStatus, reason *string) error {
	p, ok := r.s.payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Status = status
	if reason != nil {
		p.FailureReason = null.StringFrom(*reason)
	}
	r.s.payments[id] = p
	return nil
}

func (r *fakePaymentRepo) ListAll(ctx context.Context) ([]domain.Payment, error) {
	var out []domain.Payment
	for _, p := range r.s.payments {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakePaymentRepo) ListBySessionID(ctx context.Context, sessionID int) ([]domain.Payment, error) {
	var out []domain.Payment
	for _, p := range r.s.payments {
		if p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeMethodRepo struct{ s *fakeStore }

func (r *fakeMethodRepo) Create(ctx context.Context, method *domain.PaymentMethod) (*domain.PaymentMethod, error) {
	created := *method
	created.ID = r.s.id()
	created.CreatedAt = time.Now().UTC()
	r.s.methods[created.ID] = created
	return &created, nil
}

func (r *fakeMethodRepo) FindByID(ctx context.Context, id int) (*domain.PaymentMethod, error) {
	m, ok := r.s.methods[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (r *fakeMethodRepo) FindAll(ctx context.Context) ([]domain.PaymentMethod, error) {
	var out []domain.PaymentMethod
	for _, m := range r.s.methods {
		out = append(out, m)
	}
	return out, nil
}

func (r *fakeMethodRepo) UpdateAssets(ctx context.Context, id int, qrPath, logoPath *string) error {
	m, ok := r.s.methods[id]
	if !ok {
		return repository.ErrNotFound
	}
	if qrPath != nil {
		m.QRPath = null.StringFrom(*qrPath)
	}
	if logoPath != nil {
		m.LogoPath = null.StringFrom(*logoPath)
	}
	r.s.methods[id] = m
	return nil
}

type fakeEmployeeRepo struct{ s *fakeStore }

func (r *fakeEmployeeRepo) Create(ctx context.Context, employee *domain.Employee) (*domain.Employee, error) {
	created := *employee
	created.ID = r.s.id()
	created.CreatedAt = time.Now().UTC()
	r.s.employees[created.ID] = created
	return &created, nil
}

func (r *fakeEmployeeRepo) FindByID(ctx context.Context, id int) (*domain.Employee, error) {
	e, ok := r.s.employees[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r *fakeEmployeeRepo) FindByVehicleID(ctx context.Context, vehicleID int) (*domain.Employee, error) {
	for _, e := range r.s.employees {
		if e.VehicleID.Valid && int(e.VehicleID.Int64) == vehicleID {
			ee := e
			return &ee, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeEmployeeRepo) FindAll(ctx context.Context) ([]domain.Employee, error) {
	var out []domain.Employee
	for _, e := range r.s.employees {
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeEmployeeRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.s.employees[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.employees, id)
	return nil
}

type fakeKioskRepo struct{ s *fakeStore }

func (r *fakeKioskRepo) Create(ctx context.Context, kiosk *domain.Kiosk) (*domain.Kiosk, error) {
	created := *kiosk
	created.ID = r.s.id()
	created.CreatedAt = time.Now().UTC()
	r.s.kiosks[created.ID] = created
	return &created, nil
}

func (r *fakeKioskRepo) FindByID(ctx context.Context, id int) (*domain.Kiosk, error) {
	k, ok := r.s.kiosks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &k, nil
}

func (r *fakeKioskRepo) FindAll(ctx context.Context) ([]domain.Kiosk, error) {
	var out []domain.Kiosk
	for _, k := range r.s.kiosks {
		out = append(out, k)
	}
	return out, nil
}

func (r *fakeKioskRepo) Update(ctx context.Context, kiosk *domain.Kiosk) (*domain.Kiosk, error) {
	if _, ok := r.s.kiosks[kiosk.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	updated := *kiosk
	updated.UpdatedAt = time.Now().UTC()
	r.s.kiosks[kiosk.ID] = updated
	return &updated, nil
}

func (r *fakeKioskRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.s.kiosks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.kiosks, id)
	return nil
}
