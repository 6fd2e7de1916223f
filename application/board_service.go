package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"job-board/domain"
	"job-board/infrastructure"
)

const (
	msgBoardNotFound     = "Job board not found"
	msgJobNotFound       = "Job not found"
	msgInvalidAdminToken = "Invalid or expired admin token"
	msgInvalidEditToken  = "Invalid or expired edit token"
	msgChallengeFailed   = "Please complete the verification challenge and try again"
	msgAdminLinkSent     = "If that email manages this job board, a new admin link is on its way"
	msgEditLinkSent      = "If that email posted this job, a new edit link is on its way"
)

// BoardStore is the persistence the service depends on.
type BoardStore interface {
	CreateCommunity(ctx context.Context, name string, description *string, adminEmail string) (*domain.Community, string, error)
	GetCommunityBySlug(ctx context.Context, slug string) (*domain.Community, error)
	GetCommunityByID(ctx context.Context, id uint) (*domain.Community, error)
	GetCommunityByAdminToken(ctx context.Context, token string) (*domain.Community, error)
	UpdateCommunity(ctx context.Context, id uint, update domain.CommunityUpdate) (*domain.Community, error)
	GenerateMagicLink(ctx context.Context, communityID uint) (string, error)
	DeleteCommunity(ctx context.Context, id uint) (bool, error)
	CreateJob(ctx context.Context, data domain.NewJob) (*domain.Job, string, error)
	GetJobByID(ctx context.Context, id uint) (*domain.Job, error)
	GetJobsByCommunityID(ctx context.Context, communityID uint) ([]domain.Job, error)
	GetJobByEditToken(ctx context.Context, token string) (*domain.Job, error)
	UpdateJob(ctx context.Context, id uint, update domain.JobUpdate) (*domain.Job, error)
	RotateEditToken(ctx context.Context, jobID uint) (string, error)
	DeleteJob(ctx context.Context, id uint) (bool, error)
}

// Notifier delivers mail without blocking the caller.
type Notifier interface {
	SendFireAndForget(msg domain.EmailMessage)
}

type ChallengeVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) bool
}

type BoardService struct {
	Store    BoardStore
	Notifier Notifier
	Verifier ChallengeVerifier
	Metrics  *infrastructure.Metrics

	BaseURL            string
	AdminTokenTTLHours int
	EditTokenTTLHours  int

	// LinkCooldown keeps link requests from replacing a token that was
	// minted moments ago. Zero disables it.
	LinkCooldown time.Duration
	Now          func() time.Time
}

func NewBoardService(store BoardStore, notifier Notifier, verifier ChallengeVerifier, metrics *infrastructure.Metrics, cfg *infrastructure.Config) *BoardService {
	return &BoardService{
		Store:              store,
		Notifier:           notifier,
		Verifier:           verifier,
		Metrics:            metrics,
		BaseURL:            cfg.BaseURL,
		AdminTokenTTLHours: cfg.AdminTokenTTLHours,
		EditTokenTTLHours:  cfg.EditTokenTTLHours,
		LinkCooldown:       time.Duration(cfg.LinkRequestCooldownMinutes) * time.Minute,
		Now:                time.Now,
	}
}

type CreateBoardInput struct {
	Name        string
	Email       string
	Description string
	Challenge   string
	RemoteIP    string
}

func (in CreateBoardInput) form() map[string]string {
	return map[string]string{"name": in.Name, "email": in.Email, "description": in.Description}
}

type PostJobInput struct {
	Title       string
	Company     string
	Location    string
	Category    string
	JobType     string
	Remote      bool
	SalaryMin   string
	SalaryMax   string
	Description string
	ContactInfo string
	PosterEmail string
	Challenge   string
	RemoteIP    string
}

func (in PostJobInput) form() map[string]string {
	return map[string]string{
		"title":        in.Title,
		"company":      in.Company,
		"location":     in.Location,
		"category":     in.Category,
		"job_type":     in.JobType,
		"remote":       strconv.FormatBool(in.Remote),
		"salary_min":   in.SalaryMin,
		"salary_max":   in.SalaryMax,
		"description":  in.Description,
		"contact_info": in.ContactInfo,
		"poster_email": in.PosterEmail,
	}
}

// UpdateBoardInput carries only the fields the admin submitted.
type UpdateBoardInput struct {
	Name        domain.Optional[string]
	Description domain.Optional[string]
	AdminEmail  domain.Optional[string]
}

func (in UpdateBoardInput) form() map[string]string {
	form := map[string]string{}
	if in.Name.Set {
		form["name"] = in.Name.Value
	}
	if in.Description.Set {
		form["description"] = in.Description.Value
	}
	if in.AdminEmail.Set {
		form["admin_email"] = in.AdminEmail.Value
	}
	return form
}

type EditJobInput struct {
	Title       string
	Description string
	ContactInfo string
}

func (in EditJobInput) form() map[string]string {
	return map[string]string{"title": in.Title, "description": in.Description, "contact_info": in.ContactInfo}
}

// LinkRequest asks for a fresh magic link to be mailed to Email.
type LinkRequest struct {
	Email     string
	Challenge string
	RemoteIP  string
}

type BoardView struct {
	Community *domain.Community `json:"community"`
	Jobs      []domain.Job      `json:"jobs"`
}

type JobView struct {
	Community *domain.Community `json:"community"`
	Job       *domain.Job       `json:"job"`
}

type AdminCommunityView struct {
	ID          uint      `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	AdminEmail  string    `json:"admin_email"`
	CreatedAt   time.Time `json:"created_at"`
}

type AdminView struct {
	Community AdminCommunityView `json:"community"`
	Jobs      []domain.Job       `json:"jobs"`
}

type EditableJob struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ContactInfo *string   `json:"contact_info,omitempty"`
	PosterEmail string    `json:"poster_email"`
	CreatedAt   time.Time `json:"created_at"`
}

func adminCommunityView(c *domain.Community) AdminCommunityView {
	return AdminCommunityView{
		ID:          c.ID,
		Slug:        c.Slug,
		Name:        c.Name,
		Description: c.Description,
		AdminEmail:  c.AdminEmail,
		CreatedAt:   c.CreatedAt,
	}
}

func editableJob(j *domain.Job) EditableJob {
	return EditableJob{
		ID:          j.ID,
		Title:       j.Title,
		Description: j.Description,
		ContactInfo: j.ContactInfo,
		PosterEmail: j.PosterEmail,
		CreatedAt:   j.CreatedAt,
	}
}

func optionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func requiredMessage(field string) string {
	return strings.ReplaceAll(field, "_", " ") + " is required"
}

type lengthRule struct {
	field string
	value string
	max   int
}

// tooLong returns the message for the first value over its column size, or "".
func tooLong(rules ...lengthRule) string {
	for _, r := range rules {
		if domain.ExceedsLength(strings.TrimSpace(r.value), r.max) {
			return fmt.Sprintf("%s must be at most %d characters", strings.ReplaceAll(r.field, "_", " "), r.max)
		}
	}
	return ""
}

func (s *BoardService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// recentlyMinted reports whether the token expiring at expires was issued
// within the link cooldown.
func (s *BoardService) recentlyMinted(expires *time.Time, ttlHours int) bool {
	if s.LinkCooldown <= 0 || expires == nil {
		return false
	}
	issued := expires.Add(-time.Duration(ttlHours) * time.Hour)
	return s.now().Sub(issued) < s.LinkCooldown
}

func (s *BoardService) verifyChallenge(ctx context.Context, token, remoteIP string) bool {
	if s.Verifier == nil {
		return false
	}
	return s.Verifier.Verify(ctx, token, remoteIP)
}

// CreateBoard validates the submitter, creates the community and mails the
// admin link. The plaintext token only ever leaves through that email.
func (s *BoardService) CreateBoard(ctx context.Context, in CreateBoardInput) domain.Result {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" {
		return domain.ValidationFailed("Name and email are required", in.form())
	}
	if msg := tooLong(
		lengthRule{"name", name, domain.MaxTextLength},
		lengthRule{"description", in.Description, domain.MaxDescriptionLength},
	); msg != "" {
		return domain.ValidationFailed(msg, in.form())
	}
	if v := domain.ValidateEmail(email); !v.Valid {
		return domain.ValidationFailed(v.Error, in.form())
	}
	if !s.verifyChallenge(ctx, in.Challenge, in.RemoteIP) {
		return domain.ValidationFailed(msgChallengeFailed, in.form())
	}

	community, token, err := s.Store.CreateCommunity(ctx, name, optionalText(in.Description), email)
	if errors.Is(err, domain.ErrDuplicateSlug) {
		return domain.Conflict("A job board with this address already exists, please submit the form again")
	}
	if err != nil {
		return domain.Internal(err)
	}

	msg := infrastructure.AdminMagicLinkEmail(community.Name, token, s.BaseURL, s.AdminTokenTTLHours)
	msg.To = email
	s.Notifier.SendFireAndForget(msg)
	s.Metrics.BoardCreated()

	log.WithFields(log.Fields{"slug": community.Slug, "community_id": community.ID}).Info("job board created")
	return domain.Redirect("/" + community.Slug + "?created=true")
}

func parseSalary(label, raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%s must be a whole number of zero or more", label)
	}
	return &n, nil
}

// PostJob adds a posting to the board at slug and mails the poster an edit link.
func (s *BoardService) PostJob(ctx context.Context, slug string, in PostJobInput) domain.Result {
	community, err := s.Store.GetCommunityBySlug(ctx, slug)
	if err != nil {
		return domain.Internal(err)
	}
	if community == nil {
		return domain.NotFound(msgBoardNotFound)
	}

	required := []struct{ field, value string }{
		{"title", in.Title},
		{"company", in.Company},
		{"location", in.Location},
		{"job_type", in.JobType},
		{"description", in.Description},
		{"poster_email", in.PosterEmail},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return domain.ValidationFailed(requiredMessage(r.field), in.form())
		}
	}
	if msg := tooLong(
		lengthRule{"title", in.Title, domain.MaxTextLength},
		lengthRule{"company", in.Company, domain.MaxTextLength},
		lengthRule{"location", in.Location, domain.MaxTextLength},
		lengthRule{"category", in.Category, domain.MaxTextLength},
		lengthRule{"job_type", in.JobType, domain.MaxJobTypeLength},
		lengthRule{"description", in.Description, domain.MaxDescriptionLength},
		lengthRule{"contact_info", in.ContactInfo, domain.MaxTextLength},
	); msg != "" {
		return domain.ValidationFailed(msg, in.form())
	}

	salaryMin, err := parseSalary("Minimum salary", in.SalaryMin)
	if err != nil {
		return domain.ValidationFailed(err.Error(), in.form())
	}
	salaryMax, err := parseSalary("Maximum salary", in.SalaryMax)
	if err != nil {
		return domain.ValidationFailed(err.Error(), in.form())
	}
	if salaryMin != nil && salaryMax != nil && *salaryMin > *salaryMax {
		return domain.ValidationFailed("Minimum salary cannot be greater than maximum salary", in.form())
	}

	posterEmail := strings.TrimSpace(in.PosterEmail)
	if v := domain.ValidateEmail(posterEmail); !v.Valid {
		return domain.ValidationFailed(v.Error, in.form())
	}
	if !s.verifyChallenge(ctx, in.Challenge, in.RemoteIP) {
		return domain.ValidationFailed(msgChallengeFailed, in.form())
	}

	job, token, err := s.Store.CreateJob(ctx, domain.NewJob{
		CommunityID: community.ID,
		Title:       strings.TrimSpace(in.Title),
		Company:     strings.TrimSpace(in.Company),
		Location:    strings.TrimSpace(in.Location),
		Category:    optionalText(in.Category),
		JobType:     strings.TrimSpace(in.JobType),
		Remote:      in.Remote,
		SalaryMin:   salaryMin,
		SalaryMax:   salaryMax,
		Description: strings.TrimSpace(in.Description),
		ContactInfo: optionalText(in.ContactInfo),
		PosterEmail: posterEmail,
	})
	if err != nil {
		return domain.Internal(err)
	}

	msg := infrastructure.JobEditMagicLinkEmail(job.Title, token, s.BaseURL, s.EditTokenTTLHours)
	msg.To = posterEmail
	s.Notifier.SendFireAndForget(msg)
	s.Metrics.JobPosted()

	log.WithFields(log.Fields{"slug": community.Slug, "job_id": job.ID}).Info("job posted")
	return domain.Redirect("/" + community.Slug + "?posted=true")
}

func (s *BoardService) ViewBoard(ctx context.Context, slug string) domain.Result {
	community, err := s.Store.GetCommunityBySlug(ctx, slug)
	if err != nil {
		return domain.Internal(err)
	}
	if community == nil {
		return domain.NotFound(msgBoardNotFound)
	}
	jobs, err := s.Store.GetJobsByCommunityID(ctx, community.ID)
	if err != nil {
		return domain.Internal(err)
	}
	return domain.Success(BoardView{Community: community, Jobs: jobs})
}

// ViewJob shows a single posting. A job id under the wrong slug is not found.
func (s *BoardService) ViewJob(ctx context.Context, slug string, jobID uint) domain.Result {
	community, err := s.Store.GetCommunityBySlug(ctx, slug)
	if err != nil {
		return domain.Internal(err)
	}
	if community == nil {
		return domain.NotFound(msgBoardNotFound)
	}
	job, err := s.Store.GetJobByID(ctx, jobID)
	if err != nil {
		return domain.Internal(err)
	}
	if job == nil || job.CommunityID != community.ID {
		return domain.NotFound(msgJobNotFound)
	}
	return domain.Success(JobView{Community: community, Job: job})
}

func adminPath(slug, token string) string {
	return "/" + slug + "/admin?token=" + url.QueryEscape(token)
}

// ResolveAdminToken turns a bare admin link into the board's admin page.
func (s *BoardService) ResolveAdminToken(ctx context.Context, token string) domain.Result {
	if token == "" {
		return domain.ValidationFailed("Admin token is required", nil)
	}
	community, err := s.Store.GetCommunityByAdminToken(ctx, token)
	if err != nil {
		return domain.Internal(err)
	}
	if community == nil {
		return domain.NotFound(msgInvalidAdminToken)
	}
	return domain.Redirect(adminPath(community.Slug, token))
}

// authorizeAdmin returns the community at slug when token administers it.
// Otherwise the returned result explains the refusal.
func (s *BoardService) authorizeAdmin(ctx context.Context, slug, token string) (*domain.Community, *domain.Result) {
	fail := func(r domain.Result) (*domain.Community, *domain.Result) { return nil, &r }

	if token == "" {
		return fail(domain.Forbidden("Admin token is required"))
	}
	community, err := s.Store.GetCommunityBySlug(ctx, slug)
	if err != nil {
		return fail(domain.Internal(err))
	}
	if community == nil {
		return fail(domain.NotFound(msgBoardNotFound))
	}
	owner, err := s.Store.GetCommunityByAdminToken(ctx, token)
	if err != nil {
		return fail(domain.Internal(err))
	}
	if owner == nil {
		return fail(domain.NotFound(msgInvalidAdminToken))
	}
	if owner.ID != community.ID {
		log.WithFields(log.Fields{"slug": slug, "token_community_id": owner.ID}).Warn("admin token used on another board")
		return fail(domain.Forbidden("This admin link does not belong to this job board"))
	}
	return community, nil
}

func (s *BoardService) AdminDashboard(ctx context.Context, slug, token string) domain.Result {
	if token == "" {
		return domain.Redirect("/" + slug)
	}
	community, denied := s.authorizeAdmin(ctx, slug, token)
	if denied != nil {
		return *denied
	}
	jobs, err := s.Store.GetJobsByCommunityID(ctx, community.ID)
	if err != nil {
		return domain.Internal(err)
	}
	return domain.Success(AdminView{Community: adminCommunityView(community), Jobs: jobs})
}

func (s *BoardService) AdminDeleteJob(ctx context.Context, slug, token string, jobID uint) domain.Result {
	community, denied := s.authorizeAdmin(ctx, slug, token)
	if denied != nil {
		return *denied
	}
	job, err := s.Store.GetJobByID(ctx, jobID)
	if err != nil {
		return domain.Internal(err)
	}
	if job == nil || job.CommunityID != community.ID {
		return domain.NotFound(msgJobNotFound)
	}
	deleted, err := s.Store.DeleteJob(ctx, job.ID)
	if err != nil {
		return domain.Internal(err)
	}
	if !deleted {
		return domain.NotFound(msgJobNotFound)
	}
	log.WithFields(log.Fields{"slug": slug, "job_id": job.ID}).Info("job deleted by admin")
	return domain.Redirect(adminPath(community.Slug, token) + "&jobDeleted=true")
}

// AdminDeleteBoard removes the board and every job on it.
func (s *BoardService) AdminDeleteBoard(ctx context.Context, slug, token string) domain.Result {
	community, denied := s.authorizeAdmin(ctx, slug, token)
	if denied != nil {
		return *denied
	}
	deleted, err := s.Store.DeleteCommunity(ctx, community.ID)
	if err != nil {
		return domain.Internal(err)
	}
	if !deleted {
		return domain.NotFound(msgBoardNotFound)
	}
	log.WithField("slug", slug).Info("job board deleted")
	return domain.Redirect("/?deleted=true")
}

func (s *BoardService) AdminUpdateBoard(ctx context.Context, slug, token string, in UpdateBoardInput) domain.Result {
	community, denied := s.authorizeAdmin(ctx, slug, token)
	if denied != nil {
		return *denied
	}

	if msg := tooLong(
		lengthRule{"name", in.Name.Value, domain.MaxTextLength},
		lengthRule{"description", in.Description.Value, domain.MaxDescriptionLength},
	); msg != "" {
		return domain.ValidationFailed(msg, in.form())
	}

	var update domain.CommunityUpdate
	if in.Name.Set {
		name := strings.TrimSpace(in.Name.Value)
		if name == "" {
			return domain.ValidationFailed("Name cannot be empty", in.form())
		}
		update.Name = domain.Some(name)
	}
	if in.Description.Set {
		update.Description = domain.Some(strings.TrimSpace(in.Description.Value))
	}
	if in.AdminEmail.Set {
		email := strings.TrimSpace(in.AdminEmail.Value)
		if v := domain.ValidateEmail(email); !v.Valid {
			return domain.ValidationFailed(v.Error, in.form())
		}
		update.AdminEmail = domain.Some(email)
	}

	updated, err := s.Store.UpdateCommunity(ctx, community.ID, update)
	switch {
	case errors.Is(err, domain.ErrNoFieldsToUpdate):
		return domain.ValidationFailed("No fields to update", in.form())
	case errors.Is(err, domain.ErrNotFound):
		return domain.NotFound(msgBoardNotFound)
	case err != nil:
		return domain.Internal(err)
	}
	return domain.SuccessMessage("Job board updated successfully", adminCommunityView(updated))
}

// RequestAdminLink mails a fresh admin link when email is the board's admin
// address and the current token is older than the link cooldown. The
// response is identical either way.
func (s *BoardService) RequestAdminLink(ctx context.Context, slug string, in LinkRequest) domain.Result {
	email := strings.TrimSpace(in.Email)
	form := map[string]string{"slug": slug, "email": in.Email}
	if v := domain.ValidateEmail(email); !v.Valid {
		return domain.ValidationFailed(v.Error, form)
	}
	if !s.verifyChallenge(ctx, in.Challenge, in.RemoteIP) {
		return domain.ValidationFailed(msgChallengeFailed, form)
	}

	community, err := s.Store.GetCommunityBySlug(ctx, slug)
	if err != nil {
		return domain.Internal(err)
	}
	switch {
	case community == nil || !strings.EqualFold(community.AdminEmail, email):
	case s.recentlyMinted(community.AdminTokenExpires, s.AdminTokenTTLHours):
		log.WithField("slug", slug).Info("admin link requested during cooldown, keeping current token")
	default:
		token, err := s.Store.GenerateMagicLink(ctx, community.ID)
		if err != nil {
			log.WithError(err).WithField("slug", slug).Error("failed to rotate admin token")
		} else {
			msg := infrastructure.AdminMagicLinkEmail(community.Name, token, s.BaseURL, s.AdminTokenTTLHours)
			msg.To = community.AdminEmail
			s.Notifier.SendFireAndForget(msg)
		}
	}
	return domain.SuccessMessage(msgAdminLinkSent, nil)
}

func (s *BoardService) LoadJobForEdit(ctx context.Context, token string) domain.Result {
	if token == "" {
		return domain.ValidationFailed("Edit token is required", nil)
	}
	job, err := s.Store.GetJobByEditToken(ctx, token)
	if err != nil {
		return domain.Internal(err)
	}
	if job == nil {
		return domain.NotFound(msgInvalidEditToken)
	}
	return domain.Success(editableJob(job))
}

// EditJob lets the poster change the title, description and contact info.
func (s *BoardService) EditJob(ctx context.Context, token string, in EditJobInput) domain.Result {
	if token == "" {
		return domain.Forbidden("Edit token is required")
	}
	required := []struct{ field, value string }{
		{"title", in.Title},
		{"description", in.Description},
		{"contact_info", in.ContactInfo},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return domain.ValidationFailed(requiredMessage(r.field), in.form())
		}
	}
	if msg := tooLong(
		lengthRule{"title", in.Title, domain.MaxTextLength},
		lengthRule{"description", in.Description, domain.MaxDescriptionLength},
		lengthRule{"contact_info", in.ContactInfo, domain.MaxTextLength},
	); msg != "" {
		return domain.ValidationFailed(msg, in.form())
	}

	job, err := s.Store.GetJobByEditToken(ctx, token)
	if err != nil {
		return domain.Internal(err)
	}
	if job == nil {
		return domain.NotFound(msgInvalidEditToken)
	}

	contact := strings.TrimSpace(in.ContactInfo)
	updated, err := s.Store.UpdateJob(ctx, job.ID, domain.JobUpdate{
		Title:       domain.Some(strings.TrimSpace(in.Title)),
		Description: domain.Some(strings.TrimSpace(in.Description)),
		ContactInfo: domain.Some(&contact),
	})
	if err != nil {
		return domain.Internal(err)
	}
	if updated == nil {
		return domain.NotFound(msgJobNotFound)
	}
	return domain.SuccessMessage("Job updated successfully", editableJob(updated))
}

func (s *BoardService) DeleteOwnJob(ctx context.Context, token string) domain.Result {
	if token == "" {
		return domain.Forbidden("Edit token is required")
	}
	job, err := s.Store.GetJobByEditToken(ctx, token)
	if err != nil {
		return domain.Internal(err)
	}
	if job == nil {
		return domain.NotFound(msgInvalidEditToken)
	}
	deleted, err := s.Store.DeleteJob(ctx, job.ID)
	if err != nil {
		return domain.Internal(err)
	}
	if !deleted {
		return domain.NotFound(msgJobNotFound)
	}

	community, err := s.Store.GetCommunityByID(ctx, job.CommunityID)
	if err != nil || community == nil {
		return domain.Redirect("/?jobDeleted=true")
	}
	return domain.Redirect("/" + community.Slug + "?jobDeleted=true")
}

// RequestEditLink mails a fresh edit link when email is the job's poster,
// under the same cooldown as RequestAdminLink. The response is identical
// either way.
func (s *BoardService) RequestEditLink(ctx context.Context, jobID uint, in LinkRequest) domain.Result {
	email := strings.TrimSpace(in.Email)
	form := map[string]string{"job_id": strconv.FormatUint(uint64(jobID), 10), "email": in.Email}
	if v := domain.ValidateEmail(email); !v.Valid {
		return domain.ValidationFailed(v.Error, form)
	}
	if !s.verifyChallenge(ctx, in.Challenge, in.RemoteIP) {
		return domain.ValidationFailed(msgChallengeFailed, form)
	}

	job, err := s.Store.GetJobByID(ctx, jobID)
	if err != nil {
		return domain.Internal(err)
	}
	switch {
	case job == nil || !strings.EqualFold(job.PosterEmail, email):
	case s.recentlyMinted(job.TokenExpires, s.EditTokenTTLHours):
		log.WithField("job_id", job.ID).Info("edit link requested during cooldown, keeping current token")
	default:
		token, err := s.Store.RotateEditToken(ctx, job.ID)
		if err != nil {
			log.WithError(err).WithField("job_id", job.ID).Error("failed to rotate edit token")
		} else {
			msg := infrastructure.JobEditMagicLinkEmail(job.Title, token, s.BaseURL, s.EditTokenTTLHours)
			msg.To = job.PosterEmail
			s.Notifier.SendFireAndForget(msg)
		}
	}
	return domain.SuccessMessage(msgEditLinkSent, nil)
}
