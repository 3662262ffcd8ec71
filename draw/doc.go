// Package draw claims one undrawn prize record at random from a shared pool.
//
// The Engine keeps no state of its own. Every attempt runs in a fresh storage
// transaction: it counts the undrawn rows, picks a uniform offset into them,
// locks the row at that offset and flips its is_drawn flag with a conditional
// update. A lost race is retried once; a second loss is reported as out of stock.
package draw
