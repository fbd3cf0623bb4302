package models

// Room is a bookable teaching space.
type Room struct {
	ID         string `db:"id" json:"id"`
	BuildingID string `db:"building_id" json:"building_id"`
	RoomTypeID string `db:"room_type_id" json:"room_type_id"`
	Code       string `db:"code" json:"code"`
	Name       string `db:"name" json:"name"`
	Capacity   int    `db:"capacity" json:"capacity"`
}
