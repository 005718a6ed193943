package service

import "github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/models"

// ChangeKind describes how one car type changed between two snapshots.
type ChangeKind string

const (
	PriceUp     ChangeKind = "up"
	PriceDown   ChangeKind = "down"
	CarVanished ChangeKind = "vanished" // type is no longer offered, dropped from the snapshot
	CarAppeared ChangeKind = "appeared" // type offered for the first time, added to the snapshot
)

// CarChange is one notification-worthy change of a car type.
type CarChange struct {
	CarType  string
	Kind     ChangeKind
	OldPrice int
	NewPrice int
}

// CarsDiff is the result of comparing a stored car snapshot with fresh search data.
type CarsDiff struct {
	Changes []CarChange
	Updated []models.CarClass // snapshot to store when Changes is not empty
}

// Changed reports whether the diff is worth a notification.
func (d CarsDiff) Changed() bool {
	return len(d.Changes) > 0
}

// CollapseMinPrice leaves one entry per car type, the one with the lowest price.
// Types keep the order in which they first appear; on equal prices the first entry wins.
func CollapseMinPrice(cars []models.CarClass) []models.CarClass {
	result := make([]models.CarClass, 0, len(cars))
	index := make(map[string]int, len(cars))
	for _, car := range cars {
		i, ok := index[car.CarType]
		if !ok {
			index[car.CarType] = len(result)
			result = append(result, car)
			continue
		}
		if car.MinimalPrice < result[i].MinimalPrice {
			result[i] = car
		}
	}
	return result
}

// DiffCars compares the stored snapshot oldCars with collapsed fresh data newCars.
// Free seats are always taken from newCars but never produce a change on their own.
// Neither argument is modified.
func DiffCars(oldCars, newCars []models.CarClass) CarsDiff {
	fresh := make(map[string]models.CarClass, len(newCars))
	for _, car := range newCars {
		if _, ok := fresh[car.CarType]; !ok {
			fresh[car.CarType] = car
		}
	}

	diff := CarsDiff{Updated: make([]models.CarClass, 0, len(newCars))}
	known := make(map[string]bool, len(oldCars))
	for _, old := range oldCars {
		known[old.CarType] = true
		current, ok := fresh[old.CarType]
		if !ok {
			diff.Changes = append(diff.Changes, CarChange{CarType: old.CarType, Kind: CarVanished, OldPrice: old.MinimalPrice})
			continue
		}

		updated := old
		updated.FreeSeats = current.FreeSeats
		switch {
		case current.MinimalPrice > old.MinimalPrice:
			diff.Changes = append(diff.Changes, CarChange{CarType: old.CarType, Kind: PriceUp, OldPrice: old.MinimalPrice, NewPrice: current.MinimalPrice})
			updated.MinimalPrice = current.MinimalPrice
		case current.MinimalPrice < old.MinimalPrice:
			diff.Changes = append(diff.Changes, CarChange{CarType: old.CarType, Kind: PriceDown, OldPrice: old.MinimalPrice, NewPrice: current.MinimalPrice})
			updated.MinimalPrice = current.MinimalPrice
		}
		diff.Updated = append(diff.Updated, updated)
	}

	for _, car := range newCars {
		if known[car.CarType] {
			continue
		}
		known[car.CarType] = true
		diff.Changes = append(diff.Changes, CarChange{CarType: car.CarType, Kind: CarAppeared, NewPrice: car.MinimalPrice})
		diff.Updated = append(diff.Updated, car)
	}
	return diff
}
