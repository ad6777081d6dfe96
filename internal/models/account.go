package models

import "time"

// Account is the public profile a user posts, comments and subscribes through.
type Account struct {
	ID                uint          `gorm:"primaryKey" json:"id"`
	Name              string        `gorm:"not null" json:"name"`
	Description       string        `gorm:"not null" json:"description"`
	ForegroundPicture string        `json:"foregroundPicture,omitempty"`
	BackgroundPicture string        `json:"backgroundPicture,omitempty"`
	Visibility        Accessibility `gorm:"size:20" json:"visibility,omitempty"`
	CreatedAt         time.Time     `json:"createdAt"`

	ConfigurationID uint    `gorm:"not null;uniqueIndex" json:"configurationId"`
	Configuration   *Config `gorm:"foreignKey:ConfigurationID" json:"configuration,omitempty"`
	UserID          *uint   `gorm:"uniqueIndex" json:"userId,omitempty"`
	User            *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Posts         []*Post       `gorm:"foreignKey:AccountID" json:"posts,omitempty"`
	Comments      []*Comment    `gorm:"foreignKey:AccountID" json:"-"`
	Memberships   []*Membership `gorm:"foreignKey:AccountID" json:"-"`
	Subscriptions []*Membership `gorm:"foreignKey:SubscriberID" json:"-"`
	Reviews       []*Review     `gorm:"foreignKey:AccountID" json:"-"`
	Owners        []*Ticket     `gorm:"foreignKey:IssuedByID" json:"-"`
	Reports       []*Ticket     `gorm:"foreignKey:AccountRelatedID" json:"-"`
}

// TableName keeps the account table clear of the reserved word space.
func (Account) TableName() string {
	return "ngelmak_accounts"
}

// AddPost attaches p to the account and points p back at it.
func (a *Account) AddPost(p *Post) *Account {
	p.AccountID = a.ID
	a.Posts = append(a.Posts, p)
	return a
}

// RemovePost drops p from the account. Saved posts also match by id.
func (a *Account) RemovePost(p *Post) *Account {
	for i := range a.Posts {
		if a.Posts[i] == p || (p.ID != 0 && a.Posts[i].ID == p.ID) {
			a.Posts = append(a.Posts[:i], a.Posts[i+1:]...)
			break
		}
	}
	p.AccountID = 0
	return a
}

// AddMembership records a follower of the account.
func (a *Account) AddMembership(m *Membership) *Account {
	m.AccountID = a.ID
	a.Memberships = append(a.Memberships, m)
	return a
}

// AddSubscription records an account this one follows.
func (a *Account) AddSubscription(m *Membership) *Account {
	m.SubscriberID = a.ID
	a.Subscriptions = append(a.Subscriptions, m)
	return a
}

// AddOwner records a ticket issued by the account.
func (a *Account) AddOwner(t *Ticket) *Account {
	t.IssuedByID = a.ID
	a.Owners = append(a.Owners, t)
	return a
}

// AddReport records a ticket filed against the account.
func (a *Account) AddReport(t *Ticket) *Account {
	id := a.ID
	t.AccountRelatedID = &id
	a.Reports = append(a.Reports, t)
	return a
}
