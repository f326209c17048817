package reservation

// Availability は空き確認の結果
type Availability struct {
	Available bool
	Conflicts []*Reservation
}

// FindConflicts は候補の時間帯と重なる有効な予約を返す
// キャンセル・却下・論理削除済みの予約は競合しない。excludeID の予約（編集中の自分自身）は除外する
func FindConflicts(candidate Window, existing []*Reservation, excludeID string) []*Reservation {
	var conflicts []*Reservation
	for _, r := range existing {
		if excludeID != "" && r.ID == excludeID {
			continue
		}
		if !r.BlocksSpace() {
			continue
		}
		if r.Window.Overlaps(candidate) {
			conflicts = append(conflicts, r)
		}
	}
	return conflicts
}

// CheckAvailability は FindConflicts の結果を Availability にまとめる
func CheckAvailability(candidate Window, existing []*Reservation, excludeID string) Availability {
	conflicts := FindConflicts(candidate, existing, excludeID)
	return Availability{Available: len(conflicts) == 0, Conflicts: conflicts}
}
