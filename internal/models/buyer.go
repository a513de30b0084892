// Package models defines data types for buyer intake records and their history.
package models

import (
	"strings"
	"time"
)

// City is the locality a buyer is searching in.
type City string

// Supported cities.
const (
	CityChandigarh City = "CHANDIGARH"
	CityMohali     City = "MOHALI"
	CityZirakpur   City = "ZIRAKPUR"
	CityPanchkula  City = "PANCHKULA"
	CityOther      City = "OTHER"
)

// PropertyType is the kind of property a buyer wants.
type PropertyType string

// Supported property types.
const (
	PropertyApartment PropertyType = "APARTMENT"
	PropertyVilla     PropertyType = "VILLA"
	PropertyPlot      PropertyType = "PLOT"
	PropertyOffice    PropertyType = "OFFICE"
	PropertyRetail    PropertyType = "RETAIL"
)

// RequiresBHK reports whether listings of this type are classified by bedroom count.
func (p PropertyType) RequiresBHK() bool {
	return p == PropertyApartment || p == PropertyVilla
}

// BHK is the bedroom-count classification for apartments and villas.
type BHK string

// Supported BHK values.
const (
	BHKStudio BHK = "STUDIO"
	BHKOne    BHK = "ONE"
	BHKTwo    BHK = "TWO"
	BHKThree  BHK = "THREE"
	BHKFour   BHK = "FOUR"
)

// Purpose is whether the buyer wants to buy or rent.
type Purpose string

// Supported purposes.
const (
	PurposeBuy  Purpose = "BUY"
	PurposeRent Purpose = "RENT"
)

// Timeline is how soon the buyer intends to close.
type Timeline string

// Supported timelines.
const (
	TimelineZeroToThree Timeline = "ZERO_TO_THREE_MONTHS"
	TimelineThreeToSix  Timeline = "THREE_TO_SIX_MONTHS"
	TimelineMoreThanSix Timeline = "MORE_THAN_SIX_MONTHS"
	TimelineExploring   Timeline = "EXPLORING"
)

// Source is the channel the lead arrived through.
type Source string

// Supported lead sources.
const (
	SourceWebsite  Source = "WEBSITE"
	SourceReferral Source = "REFERRAL"
	SourceWalkIn   Source = "WALK_IN"
	SourceCall     Source = "CALL"
	SourceOther    Source = "OTHER"
)

// Status is the pipeline stage of a lead.
type Status string

// Supported statuses.
const (
	StatusNew         Status = "NEW"
	StatusQualified   Status = "QUALIFIED"
	StatusContacted   Status = "CONTACTED"
	StatusVisited     Status = "VISITED"
	StatusNegotiation Status = "NEGOTIATION"
	StatusConverted   Status = "CONVERTED"
	StatusDropped     Status = "DROPPED"
)

// Buyer is a prospect's intake profile. UpdatedAt doubles as the optimistic
// lock token: every persisted change moves it forward.
type Buyer struct {
	ID           string       `json:"id"`
	FullName     string       `json:"fullName" validate:"required,min=2,max=80"`
	Email        *string      `json:"email" validate:"omitempty,email,max=254"`
	Phone        string       `json:"phone" validate:"required,phone"`
	City         City         `json:"city" validate:"required,oneof=CHANDIGARH MOHALI ZIRAKPUR PANCHKULA OTHER"`
	PropertyType PropertyType `json:"propertyType" validate:"required,oneof=APARTMENT VILLA PLOT OFFICE RETAIL"`
	BHK          *BHK         `json:"bhk" validate:"omitempty,oneof=STUDIO ONE TWO THREE FOUR"`
	Purpose      Purpose      `json:"purpose" validate:"required,oneof=BUY RENT"`
	BudgetMin    *int64       `json:"budgetMin" validate:"omitempty,min=0"`
	BudgetMax    *int64       `json:"budgetMax" validate:"omitempty,min=0"`
	Timeline     Timeline     `json:"timeline" validate:"required,oneof=ZERO_TO_THREE_MONTHS THREE_TO_SIX_MONTHS MORE_THAN_SIX_MONTHS EXPLORING"`
	Source       Source       `json:"source" validate:"required,oneof=WEBSITE REFERRAL WALK_IN CALL OTHER"`
	Status       Status       `json:"status" validate:"required,oneof=NEW QUALIFIED CONTACTED VISITED NEGOTIATION CONVERTED DROPPED"`
	Notes        *string      `json:"notes" validate:"omitempty,max=1000"`
	Tags         []string     `json:"tags"`
	OwnerID      string       `json:"ownerId"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Clone returns a deep copy of b so callers can mutate it without touching the original.
func (b *Buyer) Clone() *Buyer {
	c := *b
	c.Email = clonePtr(b.Email)
	c.BHK = clonePtr(b.BHK)
	c.BudgetMin = clonePtr(b.BudgetMin)
	c.BudgetMax = clonePtr(b.BudgetMax)
	c.Notes = clonePtr(b.Notes)
	c.Tags = append([]string{}, b.Tags...)

	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}

	v := *p

	return &v
}

// Owner is the display identity of a record's owner.
type Owner struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// DisplayName returns the owner's name, falling back to the email address.
func (o Owner) DisplayName() string {
	if o.Name != "" {
		return o.Name
	}

	return o.Email
}

// BuyerDetail is a buyer with its owner and most recent history entries (newest first).
type BuyerDetail struct {
	Buyer   *Buyer         `json:"buyer"`
	Owner   Owner          `json:"owner"`
	History []HistoryEntry `json:"history"`
}

// BuyerFilter enumerates the supported list/export predicates. All set
// predicates are AND-combined; Search matches fullName, email or phone.
type BuyerFilter struct {
	Search       string
	City         City
	PropertyType PropertyType
	Status       Status
	Timeline     Timeline
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchPattern returns the lower-cased LIKE pattern for Search with the
// wildcard characters escaped by a backslash. It is empty when no search
// term is set.
func (f BuyerFilter) SearchPattern() string {
	term := strings.TrimSpace(f.Search)
	if term == "" {
		return ""
	}

	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// Applied returns the set predicates keyed by their query parameter name.
func (f BuyerFilter) Applied() map[string]string {
	out := map[string]string{}

	for k, v := range map[string]string{
		"search":       strings.TrimSpace(f.Search),
		"city":         string(f.City),
		"propertyType": string(f.PropertyType),
		"status":       string(f.Status),
		"timeline":     string(f.Timeline),
	} {
		if v != "" {
			out[k] = v
		}
	}

	return out
}

// PageRequest selects one page of a list result (1-based page number).
type PageRequest struct {
	Page     int
	PageSize int
}

// Offset returns the row offset for the requested page.
func (p PageRequest) Offset() int {
	if p.Page < 1 {
		return 0
	}

	return (p.Page - 1) * p.PageSize
}

// BuyerPage is one page of buyers plus the total match count.
type BuyerPage struct {
	Buyers   []Buyer `json:"buyers"`
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
}

// ExportRecord is a stored buyer joined with its owner, ready for flattening.
type ExportRecord struct {
	Buyer Buyer
	Owner Owner
}
