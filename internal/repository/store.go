package repository

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"parking-gate-service/internal/domain/account"
	"parking-gate-service/internal/domain/parking"
	"parking-gate-service/internal/store"
)

// Store is the gorm-backed ledger. Atomicity of multi-step writes is
// delegated to the database transaction mechanism via InTx.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ store.Store = (*Store)(nil)

func (s *Store) InTx(ctx context.Context, fn func(store.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) CreateEntry(ctx context.Context, e *parking.Entry) error {
	row := Entry{
		Plate:       e.Plate,
		ImageIn:     e.ImageIn,
		TimestampIn: e.TimestampIn,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	e.ID = row.ID
	return nil
}

func (s *Store) LastEntryTime(ctx context.Context, plate string) (*time.Time, error) {
	var row Entry
	err := s.db.WithContext(ctx).
		Where("plate = ?", plate).
		Order("id DESC").
		First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row.TimestampIn, nil
}

func (s *Store) CreateActiveCar(ctx context.Context, ac *parking.ActiveCar) error {
	row := ActiveCar{
		EntryID:     ac.EntryID,
		Plate:       ac.Plate,
		TimestampIn: ac.TimestampIn,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *Store) EarliestActiveCar(ctx context.Context, plate string) (*parking.ActiveCar, error) {
	var row ActiveCar
	err := s.db.WithContext(ctx).
		Where("plate = ?", plate).
		Order("timestamp_in ASC, entry_id ASC").
		First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &parking.ActiveCar{
		EntryID:     row.EntryID,
		Plate:       row.Plate,
		TimestampIn: row.TimestampIn,
	}, nil
}

func (s *Store) DeleteActiveCar(ctx context.Context, entryID int64) error {
	return s.db.WithContext(ctx).Delete(&ActiveCar{}, "entry_id = ?", entryID).Error
}

func (s *Store) CountActiveCars(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&ActiveCar{}).Count(&n).Error
	return n, err
}

func (s *Store) CreateExit(ctx context.Context, e *parking.Exit) error {
	row := Exit{
		EntryID:         e.EntryID,
		Plate:           e.Plate,
		ImageOut:        e.ImageOut,
		TimestampOut:    e.TimestampOut,
		DurationMinutes: e.DurationMinutes,
		Cost:            e.Cost,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	e.ID = row.ID
	return nil
}

func (s *Store) CreateGateEvent(ctx context.Context, ev *parking.GateEvent) error {
	row := GateEvent{
		CameraID:  ev.CameraID,
		Direction: ev.Direction,
		Plate:     ev.Plate,
		Region:    ev.Region,
		EventTime: ev.EventTime,
		CreatedAt: time.Now(),
	}
	if len(ev.Votes) > 0 {
		raw, err := json.Marshal(ev.Votes)
		if err != nil {
			return err
		}
		row.Votes = raw
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	ev.ID = row.ID
	return nil
}

func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var row Setting
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return row.Value, nil
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	res := s.db.WithContext(ctx).Model(&Setting{}).
		Where("key = ?", key).
		Update("value", value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.db.WithContext(ctx).Create(&Setting{Key: key, Value: value}).Error
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, u *account.User) error {
	row := User{
		PhoneNumber: u.PhoneNumber,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
		IsActive:    u.IsActive,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	u.ID = row.ID
	return nil
}

func (s *Store) UserByPhone(ctx context.Context, phone string) (*account.User, error) {
	var row User
	err := s.db.WithContext(ctx).Where("phone_number = ?", phone).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return userToDomain(row), nil
}

func (s *Store) UserByID(ctx context.Context, id int64) (*account.User, error) {
	var row User
	err := s.db.WithContext(ctx).First(&row, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return userToDomain(row), nil
}

func (s *Store) ListUsers(ctx context.Context, limit, offset int) ([]account.User, error) {
	var rows []User
	err := s.db.WithContext(ctx).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	users := make([]account.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, *userToDomain(r))
	}
	return users, nil
}

func (s *Store) UpdateUserRole(ctx context.Context, id int64, role string) error {
	return s.db.WithContext(ctx).Model(&User{}).
		Where("id = ?", id).
		Update("role", role).Error
}

func (s *Store) CreateWallet(ctx context.Context, w *account.Wallet) error {
	row := Wallet{
		UserID:      w.UserID,
		Balance:     w.Balance,
		LastUpdated: w.LastUpdated,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	w.ID = row.ID
	return nil
}

func (s *Store) WalletByUserID(ctx context.Context, userID int64) (*account.Wallet, error) {
	var row Wallet
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account.Wallet{
		ID:          row.ID,
		UserID:      row.UserID,
		Balance:     row.Balance,
		LastUpdated: row.LastUpdated,
	}, nil
}

func (s *Store) UpdateWalletBalance(ctx context.Context, walletID, newBalance int64, now time.Time) error {
	return s.db.WithContext(ctx).Model(&Wallet{}).
		Where("id = ?", walletID).
		Updates(map[string]interface{}{
			"balance":      newBalance,
			"last_updated": now,
		}).Error
}

func (s *Store) CreateTransaction(ctx context.Context, t *account.Transaction) error {
	row := Transaction{
		WalletID:        t.WalletID,
		TransactionType: t.Type,
		Amount:          t.Amount,
		Timestamp:       t.Timestamp,
		Description:     t.Description,
		ExitID:          t.ExitID,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	t.ID = row.ID
	return nil
}

func (s *Store) TransactionsForWallet(ctx context.Context, walletID int64, limit, offset int) ([]account.Transaction, error) {
	var rows []Transaction
	err := s.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	txs := make([]account.Transaction, 0, len(rows))
	for _, r := range rows {
		txs = append(txs, account.Transaction{
			ID:          r.ID,
			WalletID:    r.WalletID,
			Type:        r.TransactionType,
			Amount:      r.Amount,
			Timestamp:   r.Timestamp,
			Description: r.Description,
			ExitID:      r.ExitID,
		})
	}
	return txs, nil
}

func (s *Store) CreateUserPlate(ctx context.Context, p *account.UserPlate) error {
	row := UserPlate{
		UserID:       p.UserID,
		Plate:        p.Plate,
		RegisteredAt: p.RegisteredAt,
		IsActive:     p.IsActive,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	p.ID = row.ID
	return nil
}

func (s *Store) UserPlateByID(ctx context.Context, id int64) (*account.UserPlate, error) {
	var row UserPlate
	err := s.db.WithContext(ctx).First(&row, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return plateToDomain(row), nil
}

func (s *Store) UserPlateFor(ctx context.Context, userID int64, plate string) (*account.UserPlate, error) {
	var row UserPlate
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND plate = ?", userID, plate).
		First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return plateToDomain(row), nil
}

func (s *Store) PlatesForUser(ctx context.Context, userID int64) ([]account.UserPlate, error) {
	var rows []UserPlate
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = true", userID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	plates := make([]account.UserPlate, 0, len(rows))
	for _, r := range rows {
		plates = append(plates, *plateToDomain(r))
	}
	return plates, nil
}

func (s *Store) DeactivateUserPlate(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Model(&UserPlate{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

// ActiveOwner resolves plate ownership for settlement. Two users may hold
// the same plate text; the oldest active registration wins.
func (s *Store) ActiveOwner(ctx context.Context, plate string) (*account.UserPlate, error) {
	var row UserPlate
	err := s.db.WithContext(ctx).
		Where("plate = ? AND is_active = true", plate).
		Order("id ASC").
		First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return plateToDomain(row), nil
}

func (s *Store) CreateAuthToken(ctx context.Context, userID int64, token string, createdAt, expiresAt time.Time) error {
	row := AuthToken{
		UserID:    userID,
		Token:     token,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *Store) AuthTokenUser(ctx context.Context, token string) (int64, *time.Time, error) {
	var row AuthToken
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, err
	}
	return row.UserID, &row.ExpiresAt, nil
}

func (s *Store) DeleteAuthToken(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Delete(&AuthToken{}, "token = ?", token).Error
}

func (s *Store) DeleteUserTokens(ctx context.Context, userID int64) error {
	return s.db.WithContext(ctx).Delete(&AuthToken{}, "user_id = ?", userID).Error
}

func userToDomain(r User) *account.User {
	return &account.User{
		ID:          r.ID,
		PhoneNumber: r.PhoneNumber,
		Role:        r.Role,
		CreatedAt:   r.CreatedAt,
		IsActive:    r.IsActive,
	}
}

func plateToDomain(r UserPlate) *account.UserPlate {
	return &account.UserPlate{
		ID:           r.ID,
		UserID:       r.UserID,
		Plate:        r.Plate,
		RegisteredAt: r.RegisteredAt,
		IsActive:     r.IsActive,
	}
}
