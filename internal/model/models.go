package model

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Page statuses. A page cycles available -> in-progress -> completed and can
// only go back to available, never straight from completed to in-progress.
const (
	PageAvailable  = "available"
	PageInProgress = "in-progress"
	PageCompleted  = "completed"
)

// History actions, one per lifecycle transition.
const (
	ActionClaimed   = "claimed"
	ActionReleased  = "released"
	ActionCompleted = "completed"
)

type User struct {
	ID           string `json:"id" db:"id"`
	Email        string `json:"email" db:"email"`
	Name         string `json:"name" db:"name"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         string `json:"role" db:"role"`
	Points       int    `json:"points" db:"points"`
	CreatedAt    int64  `json:"created_at" db:"created_at"`
}

type Book struct {
	ID            string  `json:"id" db:"id"`
	Name          string  `json:"name" db:"name"`
	Category      *string `json:"category" db:"category"`
	Description   *string `json:"description" db:"description"`
	ThumbnailPath *string `json:"thumbnail_path" db:"thumbnail_path"`
	TotalPages    int     `json:"total_pages" db:"total_pages"`
	SourceURL     *string `json:"source_url" db:"source_url"`
	CreatedAt     int64   `json:"created_at" db:"created_at"`

	// Derived counts, recomputed from pages rows. Not authoritative.
	AvailablePages  int `json:"available_pages" db:"-"`
	InProgressPages int `json:"in_progress_pages" db:"-"`
	CompletedPages  int `json:"completed_pages" db:"-"`
}

type Page struct {
	ID            int64   `json:"id" db:"id"`
	BookID        string  `json:"book_id" db:"book_id"`
	PageNumber    int     `json:"page_number" db:"page_number"`
	Status        string  `json:"status" db:"status"`
	EditorID      *string `json:"editor_id" db:"editor_id"`
	EditorName    *string `json:"editor_name" db:"editor_name"`
	ClaimedAt     *int64  `json:"claimed_at" db:"claimed_at"`
	CompletedAt   *int64  `json:"completed_at" db:"completed_at"`
	Content       *string `json:"content" db:"content"`
	ThumbnailPath *string `json:"thumbnail_path" db:"thumbnail_path"`
	CreatedAt     int64   `json:"created_at" db:"created_at"`
	UpdatedAt     int64   `json:"updated_at" db:"updated_at"`

	// Joined book name, populated by the admin listing.
	BookName string `json:"book_name,omitempty" db:"-"`
}

type HistoryEntry struct {
	ID        int64   `json:"id" db:"id"`
	PageID    int64   `json:"page_id" db:"page_id"`
	UserID    string  `json:"user_id" db:"user_id"`
	UserName  *string `json:"user_name" db:"-"`
	Action    string  `json:"action" db:"action"`
	CreatedAt int64   `json:"created_at" db:"created_at"`
}

// PageContent carries the working transcription state of the editor,
// including the optional two-column layout used for dual-layout pages.
type PageContent struct {
	PageID          int64  `json:"page_id" db:"page_id"`
	Content         string `json:"content" db:"content"`
	LeftColumn      string `json:"left_column" db:"left_column"`
	RightColumn     string `json:"right_column" db:"right_column"`
	TwoColumns      bool   `json:"two_columns" db:"two_columns"`
	IsContentSplit  bool   `json:"is_content_split" db:"is_content_split"`
	RightColumnName string `json:"right_column_name" db:"right_column_name"`
	LeftColumnName  string `json:"left_column_name" db:"left_column_name"`
	UpdatedAt       int64  `json:"updated_at" db:"updated_at"`
}

type Message struct {
	ID             int64     `json:"id" db:"id"`
	SenderID       string    `json:"sender_id" db:"sender_id"`
	SenderName     string    `json:"sender_name" db:"sender_name"`
	RecipientID    *string   `json:"recipient_id" db:"recipient_id"`
	ParentID       *int64    `json:"parent_id" db:"parent_id"`
	Subject        string    `json:"subject" db:"subject"`
	Body           string    `json:"body" db:"body"`
	IsAdminMessage bool      `json:"is_admin_message" db:"is_admin_message"`
	IsRead         bool      `json:"is_read" db:"is_read"`
	CreatedAt      int64     `json:"created_at" db:"created_at"`
	Replies        []Message `json:"replies,omitempty" db:"-"`
}

type Upload struct {
	ID        int64  `json:"id" db:"id"`
	UserID    string `json:"user_id" db:"user_id"`
	UserName  string `json:"user_name" db:"user_name"`
	BookName  string `json:"book_name" db:"book_name"`
	FileName  string `json:"file_name" db:"file_name"`
	FilePath  string `json:"file_path" db:"file_path"`
	FileSize  int64  `json:"file_size" db:"file_size"`
	CreatedAt int64  `json:"created_at" db:"created_at"`
}

// LibraryFolder groups books of one category for the library tree view.
type LibraryFolder struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Type     string        `json:"type"`
	Children []LibraryBook `json:"children"`
}

type LibraryBook struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Type            string `json:"type"`
	TotalPages      int    `json:"totalPages"`
	AvailablePages  int    `json:"availablePages"`
	InProgressPages int    `json:"inProgressPages"`
	CompletedPages  int    `json:"completedPages"`
	Status          string `json:"status"`
}

type UserStats struct {
	InProgressPages int `json:"inProgressPages"`
	CompletedPages  int `json:"completedPages"`
	MyPages         int `json:"myPages"`
	Points          int `json:"points"`
}

type ActivityItem struct {
	PageNumber int    `json:"page_number"`
	Status     string `json:"status"`
	Date       int64  `json:"date"`
	BookID     string `json:"book_id"`
	BookName   string `json:"book_name"`
}

type DayCount struct {
	Day   string `json:"day"`
	Pages int    `json:"pages"`
}

type WeeklyStats struct {
	Data  []DayCount `json:"data"`
	Total int        `json:"total"`
}
