package baemin

import "fmt"

// Endpoint path templates for the remote Dutch Bamin backend.
const (
	epSignup = "/auth/signup"
	epLogin  = "/auth/login"
	epStores = "/stores"
	epRooms  = "/rooms"
)

func epStoreDetail(storeID string) string {
	return fmt.Sprintf("/stores/%s", storeID)
}

func epStoreMenus(storeID string) string {
	return fmt.Sprintf("/stores/%s/menus", storeID)
}

func epRoomDetail(roomID string) string {
	return fmt.Sprintf("/rooms/%s", roomID)
}

func epParticipants(roomID string) string {
	return fmt.Sprintf("/rooms/%s/participants", roomID)
}

func epParticipant(roomID, userID string) string {
	return fmt.Sprintf("/rooms/%s/participants/%s", roomID, userID)
}

func epCart(roomID string) string {
	return fmt.Sprintf("/rooms/%s/cart", roomID)
}

func epCartMenu(roomID string) string {
	return fmt.Sprintf("/rooms/%s/menu", roomID)
}

func epCartItem(roomID, cartItemID string) string {
	return fmt.Sprintf("/rooms/%s/menu/%s", roomID, cartItemID)
}

func epOrder(roomID string) string {
	return fmt.Sprintf("/rooms/%s/order", roomID)
}

func epSettlementMethod(roomID string) string {
	return fmt.Sprintf("/rooms/%s/settlement-method", roomID)
}

func epCalculate(roomID, userID string) string {
	return fmt.Sprintf("/rooms/%s/calculate/%s", roomID, userID)
}

func epPaymentRequest(roomID string) string {
	return fmt.Sprintf("/rooms/%s/payment-request", roomID)
}

func epPaymentComplete(roomID, userID string) string {
	return fmt.Sprintf("/rooms/%s/payment/%s", roomID, userID)
}

func epPaymentStatus(roomID string) string {
	return fmt.Sprintf("/rooms/%s/payment-status", roomID)
}
