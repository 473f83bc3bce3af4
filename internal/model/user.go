package model

// User is the login record owned by an Employee.  Email and Account are
// unique; Password holds an argon2id (or legacy bcrypt) hash.
type User struct {
	Base
	Email        string      `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Account      string      `gorm:"size:100;uniqueIndex;not null" json:"account"`
	Password     string      `gorm:"size:255;not null" json:"-"`
	UserStatusID uint64      `gorm:"index;not null" json:"user_status_id"`
	UserStatus   *UserStatus `json:"user_status,omitempty"`
}

// Employee is created together with its User in a single transaction.
type Employee struct {
	Base
	FullName string `gorm:"size:200" json:"full_name"`
	Address  string `gorm:"size:500" json:"address"`
	Phone    string `gorm:"size:30" json:"phone"`
	UserID   uint64 `gorm:"uniqueIndex;not null" json:"user_id"`
	User     *User  `json:"user,omitempty"`
}
