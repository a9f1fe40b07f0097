package household

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"nomorewaste/domain"
	"nomorewaste/entities"
	"nomorewaste/internal/utils/mailing"
	"nomorewaste/pkg/activity"
)

const maxCodeAttempts = 5

type (
	HouseholdService interface {
		CreateHousehold(ctx context.Context, req domain.CreateHouseholdRequest, userID, email string) (domain.HouseholdResponse, error)
		GetMyHousehold(ctx context.Context, userID string) (domain.HouseholdResponse, error)
		JoinHousehold(ctx context.Context, req domain.JoinHouseholdRequest, userID, email string) (domain.HouseholdResponse, error)
		GenerateInviteCode(ctx context.Context, userID, email string) (domain.InviteCodeResponse, error)
		SendInvite(ctx context.Context, req domain.InviteEmailRequest, userID, email string) error
		LeaveHousehold(ctx context.Context, userID, email string) error
		DeleteHousehold(ctx context.Context, userID string) error
		FridgeIDFor(ctx context.Context, userID string) (string, error)
		IsMember(ctx context.Context, userID, fridgeID string) (bool, error)
	}

	// Evictor cuts live feed sessions that no longer belong to a household.
	Evictor interface {
		EvictMember(fridgeID, userID string)
		EvictFridge(fridgeID string)
	}

	Option func(*householdService)

	householdService struct {
		householdRepository HouseholdRepository
		publisher           activity.Publisher
		evictor             Evictor
		mailer              mailing.Mailer
		appURL              string
		codeTTL             time.Duration
		newCode             func() (string, error)
		now                 func() time.Time
	}
)

func WithMailer(m mailing.Mailer, appURL string) Option {
	return func(s *householdService) {
		s.mailer = m
		s.appURL = appURL
	}
}

func WithEvictor(e Evictor) Option {
	return func(s *householdService) { s.evictor = e }
}

func WithCodeGenerator(fn func() (string, error)) Option {
	return func(s *householdService) { s.newCode = fn }
}

func WithClock(now func() time.Time) Option {
	return func(s *householdService) { s.now = now }
}

func NewHouseholdService(householdRepository HouseholdRepository, publisher activity.Publisher, codeTTL time.Duration, opts ...Option) HouseholdService {
	s := &householdService{
		householdRepository: householdRepository,
		publisher:           publisher,
		codeTTL:             codeTTL,
		newCode:             NewInviteCode,
		now:                 time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func toHouseholdResponse(h *entities.Household) domain.HouseholdResponse {
	res := domain.HouseholdResponse{
		ID:               h.ID,
		Name:             h.Name,
		InviteCodeExpiry: h.InviteCodeExpiry,
		Members:          make([]domain.MemberResponse, 0, len(h.Members)),
	}
	if h.InviteCode != nil {
		res.InviteCode = *h.InviteCode
	}
	for _, m := range h.Members {
		res.Members = append(res.Members, domain.MemberResponse{
			UserID:   m.UserID,
			Email:    m.Email,
			JoinedAt: m.CreatedAt,
		})
	}
	return res
}

func (s *householdService) CreateHousehold(ctx context.Context, req domain.CreateHouseholdRequest, userID, email string) (domain.HouseholdResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.HouseholdResponse{}, fmt.Errorf("household name is required")
	}

	var household *entities.Household
	var entry *entities.ActivityLog
	for attempt := 0; ; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return domain.HouseholdResponse{}, err
		}
		expiry := s.now().Add(s.codeTTL).UTC()
		household = &entities.Household{Name: name, InviteCode: &code, InviteCodeExpiry: &expiry}
		owner := &entities.Member{UserID: userID, Email: email}
		entry = activity.NewEntry("", email, entities.ActionCreate, name, "Created the fridge")

		err = s.householdRepository.CreateAndLink(ctx, household, owner, entry)
		if err == nil {
			break
		}
		// a duplicate on the household row can only be the invite code
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt+1 < maxCodeAttempts {
			continue
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.HouseholdResponse{}, domain.ErrInviteCodeCollision
		}
		return domain.HouseholdResponse{}, err
	}

	var batch activity.Batch
	batch.Activity(entry)
	batch.Flush(s.publisher)
	log.Infof("household: %s created %s", userID, household.ID)

	return s.GetMyHousehold(ctx, userID)
}

func (s *householdService) GetMyHousehold(ctx context.Context, userID string) (domain.HouseholdResponse, error) {
	member, err := s.householdRepository.GetMembership(ctx, userID)
	if err != nil {
		return domain.HouseholdResponse{}, err
	}
	household, err := s.householdRepository.GetHouseholdByID(ctx, member.FridgeID)
	if err != nil {
		return domain.HouseholdResponse{}, err
	}
	return toHouseholdResponse(household), nil
}

// JoinHousehold relies on the unique membership index: a member who already belongs
// somewhere gets ErrAlreadyInHousehold from the insert itself.
func (s *householdService) JoinHousehold(ctx context.Context, req domain.JoinHouseholdRequest, userID, email string) (domain.HouseholdResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.InviteCode))
	household, err := s.householdRepository.GetHouseholdByInviteCode(ctx, code)
	if err != nil {
		return domain.HouseholdResponse{}, err
	}
	if household.InviteCodeExpiry == nil || !s.now().Before(*household.InviteCodeExpiry) {
		return domain.HouseholdResponse{}, domain.ErrInviteCodeExpired
	}

	entry := activity.NewEntry(household.ID, email, entities.ActionJoin, household.Name, "Joined the fridge")
	member := &entities.Member{UserID: userID, FridgeID: household.ID, Email: email}
	if err := s.householdRepository.AddMember(ctx, member, entry); err != nil {
		return domain.HouseholdResponse{}, err
	}

	var batch activity.Batch
	batch.Activity(entry)
	batch.Flush(s.publisher)

	return s.GetMyHousehold(ctx, userID)
}

// GenerateInviteCode replaces the active code. The previous code stops working immediately.
func (s *householdService) GenerateInviteCode(ctx context.Context, userID, email string) (domain.InviteCodeResponse, error) {
	member, err := s.householdRepository.GetMembership(ctx, userID)
	if err != nil {
		return domain.InviteCodeResponse{}, err
	}
	return s.rotateCode(ctx, member.FridgeID)
}

func (s *householdService) rotateCode(ctx context.Context, fridgeID string) (domain.InviteCodeResponse, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return domain.InviteCodeResponse{}, err
		}
		expiry := s.now().Add(s.codeTTL).UTC()
		err = s.householdRepository.SetInviteCode(ctx, fridgeID, code, expiry)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		if err != nil {
			return domain.InviteCodeResponse{}, err
		}
		return domain.InviteCodeResponse{InviteCode: code, ExpiresAt: expiry}, nil
	}
	return domain.InviteCodeResponse{}, domain.ErrInviteCodeCollision
}

// SendInvite e-mails the active code, rotating it first when it has expired.
func (s *householdService) SendInvite(ctx context.Context, req domain.InviteEmailRequest, userID, email string) error {
	if s.mailer == nil {
		return fmt.Errorf("mailing is not configured")
	}
	member, err := s.householdRepository.GetMembership(ctx, userID)
	if err != nil {
		return err
	}
	household, err := s.householdRepository.GetHouseholdByID(ctx, member.FridgeID)
	if err != nil {
		return err
	}

	code := domain.InviteCodeResponse{}
	if household.InviteCode != nil && household.InviteCodeExpiry != nil && s.now().Before(*household.InviteCodeExpiry) {
		code = domain.InviteCodeResponse{InviteCode: *household.InviteCode, ExpiresAt: *household.InviteCodeExpiry}
	} else if code, err = s.rotateCode(ctx, household.ID); err != nil {
		return err
	}

	body, err := mailing.RenderInvite(mailing.InviteData{
		Inviter:   email,
		Household: household.Name,
		Code:      code.InviteCode,
		ExpiresAt: code.ExpiresAt,
		AppURL:    s.appURL,
	})
	if err != nil {
		return err
	}
	if err := s.mailer.SendMail(req.Email, mailing.InviteSubject, body); err != nil {
		log.Errorf("household: send invite to %s: %v", req.Email, err)
		return err
	}
	return nil
}

func (s *householdService) LeaveHousehold(ctx context.Context, userID, email string) error {
	member, err := s.householdRepository.GetMembership(ctx, userID)
	if err != nil {
		return err
	}
	entry := activity.NewEntry(member.FridgeID, email, entities.ActionLeave, "", "Left the fridge")
	if err := s.householdRepository.RemoveMember(ctx, userID, entry); err != nil {
		return err
	}

	var batch activity.Batch
	batch.Activity(entry)
	batch.Flush(s.publisher)
	if s.evictor != nil {
		s.evictor.EvictMember(member.FridgeID, userID)
	}
	return nil
}

func (s *householdService) DeleteHousehold(ctx context.Context, userID string) error {
	member, err := s.householdRepository.GetMembership(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.householdRepository.DeleteHousehold(ctx, member.FridgeID); err != nil {
		return err
	}
	if s.evictor != nil {
		s.evictor.EvictFridge(member.FridgeID)
	}
	log.Infof("household: %s deleted %s", userID, member.FridgeID)
	return nil
}

func (s *householdService) FridgeIDFor(ctx context.Context, userID string) (string, error) {
	member, err := s.householdRepository.GetMembership(ctx, userID)
	if err != nil {
		return "", err
	}
	return member.FridgeID, nil
}

func (s *householdService) IsMember(ctx context.Context, userID, fridgeID string) (bool, error) {
	id, err := s.FridgeIDFor(ctx, userID)
	if errors.Is(err, domain.ErrNotAMember) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return id == fridgeID, nil
}
