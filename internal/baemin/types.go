package baemin

// SettlementMethod is the host-chosen policy for splitting the bill.
type SettlementMethod string

const (
	SettlementMenuBased  SettlementMethod = "MENU_BASED"
	SettlementEqualSplit SettlementMethod = "EQUAL_SPLIT"
)

// PaymentMethod mirrors the payment rails the backend accepts.
type PaymentMethod string

const (
	PaymentMethodCard     PaymentMethod = "CARD"
	PaymentMethodKakaoPay PaymentMethod = "KAKAO_PAY"
	PaymentMethodNaverPay PaymentMethod = "NAVER_PAY"
	PaymentMethodTossPay  PaymentMethod = "TOSS_PAY"
)

// PaymentState is the lifecycle state of one participant's payment.
type PaymentState string

const (
	PaymentPending   PaymentState = "PENDING"
	PaymentCompleted PaymentState = "COMPLETED"
	PaymentFailed    PaymentState = "FAILED"
	PaymentCancelled PaymentState = "CANCELLED"
)

// OrderStatus is the lifecycle state of a placed group order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderConfirmed  OrderStatus = "CONFIRMED"
	OrderPreparing  OrderStatus = "PREPARING"
	OrderDelivering OrderStatus = "DELIVERING"
	OrderCompleted  OrderStatus = "COMPLETED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

type SignupRequest struct {
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8"`
	Nickname      string `json:"nickname" validate:"required"`
	PhoneNumber   string `json:"phoneNumber" validate:"required"`
	RoadAddress   string `json:"roadAddress" validate:"required"`
	DetailAddress string `json:"detailAddress,omitempty"`
	ZipCode       string `json:"zipCode,omitempty"`
}

type SignupResponse struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	Nickname    string `json:"nickname"`
}

type Store struct {
	StoreID            string  `json:"storeId"`
	StoreName          string  `json:"storeName"`
	Category           string  `json:"category"`
	Rating             float64 `json:"rating"`
	ReviewCount        int     `json:"reviewCount"`
	DeliveryTime       string  `json:"deliveryTime"`
	DeliveryFee        int     `json:"deliveryFee"`
	MinimumOrderAmount int     `json:"minimumOrderAmount"`
	ThumbnailURL       string  `json:"thumbnailUrl"`
	IsOpen             bool    `json:"isOpen"`
}

type StoreListResponse struct {
	Stores []Store `json:"stores"`
}

type StoreDetail struct {
	StoreID            string  `json:"storeId"`
	StoreName          string  `json:"storeName"`
	Category           string  `json:"category"`
	Description        string  `json:"description"`
	Rating             float64 `json:"rating"`
	ReviewCount        int     `json:"reviewCount"`
	DeliveryTime       string  `json:"deliveryTime"`
	DeliveryFee        int     `json:"deliveryFee"`
	MinimumOrderAmount int     `json:"minimumOrderAmount"`
	Address            string  `json:"address"`
	PhoneNumber        string  `json:"phoneNumber"`
	WeekdayHours       string  `json:"weekdayHours"`
	WeekendHours       string  `json:"weekendHours"`
	ThumbnailURL       string  `json:"thumbnailUrl"`
	IsOpen             bool    `json:"isOpen"`
	Notice             string  `json:"notice"`
}

type Menu struct {
	MenuID      string `json:"menuId"`
	MenuName    string `json:"menuName"`
	Description string `json:"description"`
	Price       int    `json:"price"`
	ImageURL    string `json:"imageUrl"`
	IsPopular   bool   `json:"isPopular"`
	IsAvailable bool   `json:"isAvailable"`
}

type MenuListResponse struct {
	Menus []Menu `json:"menus"`
}

type CreateRoomRequest struct {
	HostID             string `json:"hostId" validate:"required"`
	StoreID            string `json:"storeId" validate:"required"`
	StoreName          string `json:"storeName" validate:"required"`
	DeliveryFee        int    `json:"deliveryFee" validate:"min=0"`
	MinimumOrderAmount int    `json:"minimumOrderAmount" validate:"min=0"`
}

type CreateRoomResponse struct {
	RoomID             string `json:"roomId"`
	HostID             string `json:"hostId"`
	StoreID            string `json:"storeId"`
	StoreName          string `json:"storeName"`
	DeliveryFee        int    `json:"deliveryFee"`
	MinimumOrderAmount int    `json:"minimumOrderAmount"`
}

type Participant struct {
	UserID   string `json:"userId"`
	Nickname string `json:"nickname"`
	IsHost   bool   `json:"isHost"`
}

// RoomDetail is the room snapshot the synchronizer refreshes. The host is
// always present in Participants.
type RoomDetail struct {
	RoomID             string        `json:"roomId"`
	HostID             string        `json:"hostId"`
	StoreID            string        `json:"storeId"`
	StoreName          string        `json:"storeName"`
	DeliveryFee        int           `json:"deliveryFee"`
	MinimumOrderAmount int           `json:"minimumOrderAmount"`
	Participants       []Participant `json:"participants"`
}

// HasParticipant reports whether the given user is in the room.
func (r *RoomDetail) HasParticipant(userID string) bool {
	if r == nil {
		return false
	}
	for _, p := range r.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

type JoinRoomRequest struct {
	UserID   string `json:"userId" validate:"required"`
	Nickname string `json:"nickname" validate:"required"`
}

type JoinRoomResponse struct {
	ParticipantID       string `json:"participantId"`
	RoomID              string `json:"roomId"`
	UserID              string `json:"userId"`
	Nickname            string `json:"nickname"`
	IsHost              bool   `json:"isHost"`
	CurrentParticipants int    `json:"currentParticipants"`
}

type MenuOption struct {
	OptionName      string `json:"optionName"`
	ChoiceName      string `json:"choiceName"`
	AdditionalPrice int    `json:"additionalPrice"`
}

type AddMenuRequest struct {
	UserID   string       `json:"userId" validate:"required"`
	MenuID   string       `json:"menuId" validate:"required"`
	MenuName string       `json:"menuName" validate:"required"`
	Quantity int          `json:"quantity" validate:"min=1"`
	Price    int          `json:"price" validate:"min=0"`
	Options  []MenuOption `json:"options,omitempty"`
}

type AddMenuResponse struct {
	CartItemID string `json:"cartItemId"`
	RoomID     string `json:"roomId"`
	UserID     string `json:"userId"`
	MenuID     string `json:"menuId"`
	MenuName   string `json:"menuName"`
	Quantity   int    `json:"quantity"`
	TotalPrice int    `json:"totalPrice"`
}

type CartItem struct {
	CartItemID string       `json:"cartItemId"`
	UserID     string       `json:"userId"`
	Nickname   string       `json:"nickname"`
	MenuName   string       `json:"menuName"`
	Quantity   int          `json:"quantity"`
	Price      int          `json:"price"`
	TotalPrice int          `json:"totalPrice"`
	Options    []MenuOption `json:"options"`
}

// Cart is an opaque snapshot computed remotely. FinalAmount and
// MinimumOrderMet are never recomputed on this side.
type Cart struct {
	RoomID          string     `json:"roomId"`
	Items           []CartItem `json:"items"`
	TotalAmount     int        `json:"totalAmount"`
	DeliveryFee     int        `json:"deliveryFee"`
	FinalAmount     int        `json:"finalAmount"`
	MinimumOrderMet bool       `json:"minimumOrderMet"`
}

type CreateOrderRequest struct {
	RoomID          string `json:"roomId" validate:"required"`
	DeliveryAddress string `json:"deliveryAddress" validate:"required"`
}

type CreateOrderResponse struct {
	OrderID         string      `json:"orderId"`
	RoomID          string      `json:"roomId"`
	StoreID         string      `json:"storeId"`
	StoreName       string      `json:"storeName"`
	TotalAmount     int         `json:"totalAmount"`
	DeliveryFee     int         `json:"deliveryFee"`
	DeliveryAddress string      `json:"deliveryAddress"`
	Status          OrderStatus `json:"status"`
	OrderedAt       string      `json:"orderedAt"`
}

type SelectSettlementMethodRequest struct {
	HostID           string           `json:"hostId" validate:"required"`
	SettlementMethod SettlementMethod `json:"settlementMethod" validate:"required,oneof=MENU_BASED EQUAL_SPLIT"`
}

type SelectSettlementMethodResponse struct {
	SettlementID     string           `json:"settlementId"`
	RoomID           string           `json:"roomId"`
	SettlementMethod SettlementMethod `json:"settlementMethod"`
}

// CalculatedAmount is the per-user breakdown fetched during the payment
// phase.
type CalculatedAmount struct {
	UserID           string `json:"userId"`
	UserMenuTotal    int    `json:"userMenuTotal"`
	DeliveryFeeShare int    `json:"deliveryFeeShare"`
	FinalAmount      int    `json:"finalAmount"`
}

type PaymentRequestRequest struct {
	HostID string `json:"hostId" validate:"required"`
}

type PaymentRequestResponse struct {
	RoomID            string `json:"roomId"`
	Message           string `json:"message"`
	TotalParticipants int    `json:"totalParticipants"`
}

type CompletePaymentRequest struct {
	PaymentMethod PaymentMethod `json:"paymentMethod" validate:"required,oneof=CARD KAKAO_PAY NAVER_PAY TOSS_PAY"`
	PaymentKey    string        `json:"paymentKey" validate:"required"`
	Amount        int           `json:"amount" validate:"min=0"`
}

type CompletePaymentResponse struct {
	PaymentID         string       `json:"paymentId"`
	RoomID            string       `json:"roomId"`
	UserID            string       `json:"userId"`
	Amount            int          `json:"amount"`
	Status            PaymentState `json:"status"`
	AllPaid           bool         `json:"allPaid"`
	PaidCount         int          `json:"paidCount"`
	TotalParticipants int          `json:"totalParticipants"`
}

type Payment struct {
	PaymentID     string        `json:"paymentId"`
	UserID        string        `json:"userId"`
	Nickname      string        `json:"nickname"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Amount        int           `json:"amount"`
	Status        PaymentState  `json:"status"`
}

// PaymentStatus aggregates per-participant payments. A non-empty
// Payments list is the sole signal that the payment phase has begun.
type PaymentStatus struct {
	AllPaid           bool      `json:"allPaid"`
	PaidCount         int       `json:"paidCount"`
	TotalParticipants int       `json:"totalParticipants"`
	Payments          []Payment `json:"payments"`
}

// PaymentFor returns the payment record for the given user, or nil.
func (p *PaymentStatus) PaymentFor(userID string) *Payment {
	if p == nil {
		return nil
	}
	for i := range p.Payments {
		if p.Payments[i].UserID == userID {
			return &p.Payments[i]
		}
	}
	return nil
}
