// Package policy holds the ownership rules for mutating tasks.
package policy

// CanMutateTask reports whether the acting user may update or delete a task
// owned by ownerID. Reads are not gated by this policy.
func CanMutateTask(actingUserID, ownerID uint) bool {
	return actingUserID == ownerID
}
