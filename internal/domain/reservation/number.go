package reservation

import "fmt"

// FormatNumber は年内の連番から予約番号を作成する（例: RES-2025-001）
// createdThisYear は論理削除・キャンセル済みを含む今年作成された予約数
func FormatNumber(year, createdThisYear int) string {
	return fmt.Sprintf("RES-%d-%03d", year, createdThisYear+1)
}
