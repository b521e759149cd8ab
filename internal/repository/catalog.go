package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zytronium/star-trek-battle-sim/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a catalog row does not exist.
var ErrNotFound = errors.New("not found")

// CatalogRepository is the read-only ship/weapon/defense catalog store.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// ListShips returns base data on all ships (no weapons or defenses).
func (r *CatalogRepository) ListShips(ctx context.Context) ([]model.Ship, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ship_id, name, class, owner, max_shield, max_hull
		FROM ships ORDER BY ship_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ships []model.Ship
	for rows.Next() {
		var s model.Ship
		if err := rows.Scan(&s.ShipID, &s.Name, &s.Class, &s.Owner, &s.MaxShield, &s.MaxHull); err != nil {
			return nil, err
		}
		ships = append(ships, s)
	}
	return ships, rows.Err()
}

// ListBosses returns base data on all boss ships.
func (r *CatalogRepository) ListBosses(ctx context.Context) ([]model.Ship, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ship_id, name, class, owner, max_shield, max_hull
		FROM boss_ships ORDER BY ship_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ships []model.Ship
	for rows.Next() {
		var s model.Ship
		if err := rows.Scan(&s.ShipID, &s.Name, &s.Class, &s.Owner, &s.MaxShield, &s.MaxHull); err != nil {
			return nil, err
		}
		ships = append(ships, s)
	}
	return ships, rows.Err()
}

// GetShipByID returns the basic ship row without its loadout.
func (r *CatalogRepository) GetShipByID(ctx context.Context, id int) (*model.Ship, error) {
	var s model.Ship
	err := r.pool.QueryRow(ctx, `
		SELECT ship_id, name, class, owner, max_shield, max_hull
		FROM ships WHERE ship_id = $1
	`, id).Scan(&s.ShipID, &s.Name, &s.Class, &s.Owner, &s.MaxShield, &s.MaxHull)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("ship %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetShipFullByID returns a ship merged with its weapons (including the
// per-ship loadout stats from ship_weapons) and defenses.
func (r *CatalogRepository) GetShipFullByID(ctx context.Context, id int) (*model.ShipTemplate, error) {
	ship, err := r.GetShipByID(ctx, id)
	if err != nil {
		return nil, err
	}

	tpl := &model.ShipTemplate{Ship: *ship}

	rows, err := r.pool.Query(ctx, `
		SELECT w.weapon_id, w.name, COALESCE(w.description, ''), w.damage,
		       w.shields_multiplier, w.hull_multiplier, COALESCE(w.special_effects, ''),
		       sw.damage_multiplier, sw.cooldown_turns, sw.max_usage
		FROM ship_weapons sw
		JOIN weapons w ON w.weapon_id = sw.weapon_id
		WHERE sw.ship_id = $1
		ORDER BY w.weapon_id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var w model.WeaponTemplate
		if err := rows.Scan(
			&w.WeaponID, &w.Name, &w.Description, &w.Damage,
			&w.ShieldsMultiplier, &w.HullMultiplier, &w.SpecialEffect,
			&w.DamageMultiplier, &w.CooldownTurns, &w.MaxUsage,
		); err != nil {
			return nil, err
		}
		tpl.Weapons = append(tpl.Weapons, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	defRows, err := r.pool.Query(ctx, `
		SELECT d.defense_id, d.name, d.type, COALESCE(d.description, ''),
		       d.effectiveness, d.hit_points
		FROM ship_defenses sd
		JOIN defenses d ON d.defense_id = sd.defense_id
		WHERE sd.ship_id = $1
		ORDER BY d.defense_id
	`, id)
	if err != nil {
		return nil, err
	}
	defer defRows.Close()

	for defRows.Next() {
		var d model.Defense
		if err := defRows.Scan(&d.DefenseID, &d.Name, &d.Type, &d.Description, &d.Effectiveness, &d.HitPoints); err != nil {
			return nil, err
		}
		tpl.Defenses = append(tpl.Defenses, d)
	}
	return tpl, defRows.Err()
}

// ListShipsFull returns every ship with its full loadout.
func (r *CatalogRepository) ListShipsFull(ctx context.Context) ([]*model.ShipTemplate, error) {
	ships, err := r.ListShips(ctx)
	if err != nil {
		return nil, err
	}

	templates := make([]*model.ShipTemplate, 0, len(ships))
	for _, s := range ships {
		tpl, err := r.GetShipFullByID(ctx, s.ShipID)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tpl)
	}
	return templates, nil
}

// GetWeaponByID returns a weapon row without per-ship loadout stats.
func (r *CatalogRepository) GetWeaponByID(ctx context.Context, id int) (*model.Weapon, error) {
	var w model.Weapon
	err := r.pool.QueryRow(ctx, `
		SELECT weapon_id, name, COALESCE(description, ''), damage,
		       shields_multiplier, hull_multiplier, COALESCE(special_effects, '')
		FROM weapons WHERE weapon_id = $1
	`, id).Scan(&w.WeaponID, &w.Name, &w.Description, &w.Damage,
		&w.ShieldsMultiplier, &w.HullMultiplier, &w.SpecialEffect)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("weapon %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// GetDefenseByID returns a defense row.
func (r *CatalogRepository) GetDefenseByID(ctx context.Context, id int) (*model.Defense, error) {
	var d model.Defense
	err := r.pool.QueryRow(ctx, `
		SELECT defense_id, name, type, COALESCE(description, ''), effectiveness, hit_points
		FROM defenses WHERE defense_id = $1
	`, id).Scan(&d.DefenseID, &d.Name, &d.Type, &d.Description, &d.Effectiveness, &d.HitPoints)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("defense %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}
